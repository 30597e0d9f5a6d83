package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/api"
	"github.com/traininduction/traininduction/internal/api/handler"
	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/fleet"
	"github.com/traininduction/traininduction/internal/induction"
	"github.com/traininduction/traininduction/internal/resilience"
	"github.com/traininduction/traininduction/internal/schedule"
	"github.com/traininduction/traininduction/internal/scoring"
)

// testRouter wires the router against the seeded in-memory fleet with the
// clock pinned to 2024-12-20.
type testRouter struct {
	handler http.Handler
	fleet   *fleet.InMemoryRepository
}

func newTestRouter(t *testing.T, opts ...func(*api.RouterConfig)) testRouter {
	t.Helper()
	logger := zerolog.New(io.Discard)

	cfg := scoring.DefaultConfig()
	cfg.Clock = func() time.Time { return time.Date(2024, 12, 20, 6, 30, 0, 0, time.UTC) }
	engine, err := scoring.NewEngine(cfg)
	require.NoError(t, err)

	trains, err := fleet.DefaultFleet()
	require.NoError(t, err)
	repo := fleet.NewInMemoryRepository(trains...)

	inductionSvc, err := induction.NewService(induction.ServiceConfig{
		Engine: engine,
		Fleet:  repo,
		Logger: logger,
	})
	require.NoError(t, err)

	scheduleSvc := schedule.NewService(schedule.ServiceConfig{
		Repository: schedule.NewInMemoryRepository(),
		Scorer:     inductionSvc,
		Logger:     logger,
	})

	rc := api.RouterConfig{
		Version:          "test",
		BuildTime:        "2024-01-01T00:00:00Z",
		Logger:           logger,
		InductionService: inductionSvc,
		ScheduleService:  scheduleSvc,
		Registry:         resilience.NewRegistry(),
		ReadinessChecks:  []handler.Check{{Name: "fleet-store", Ping: inductionSvc.Ping}},
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return testRouter{handler: api.NewRouter(rc), fleet: repo}
}

func (tr testRouter) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	return problem
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
	assert.Equal(t, "induction-api", health.Details["service"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/ops/ready", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck_FailingDependency(t *testing.T) {
	router := newTestRouter(t, func(rc *api.RouterConfig) {
		rc.ReadinessChecks = append(rc.ReadinessChecks, handler.Check{
			Name: "score-cache",
			Ping: func(context.Context) error { return errors.New("connection refused") },
		})
	})

	w := router.do(t, http.MethodGet, "/v1/ops/ready", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
	assert.Equal(t, "connection refused", health.Details["score-cache"])
}

func TestRouter_SystemStatus(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register(resilience.NewExecutor(resilience.DefaultPolicy("fleet-store")))

	router := newTestRouter(t, func(rc *api.RouterConfig) { rc.Registry = registry })

	w := router.do(t, http.MethodGet, "/v1/ops/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "fleet-store", status.Subsystems[0].Name)
	require.Len(t, status.Dependencies, 1)
	assert.Equal(t, "fleet-store", status.Dependencies[0].Name)
	assert.Equal(t, "closed", status.Dependencies[0].CircuitState)
}

func TestRouter_ListTrains(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/trains", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var list models.TrainList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 5)
	assert.Equal(t, 5, list.Meta.Count)

	ids := make([]string, 0, len(list.Items))
	for _, tr := range list.Items {
		ids = append(ids, tr.TrainID)
	}
	assert.Equal(t, []string{"KMTR-045", "KMTR-102", "KMTR-221", "KMTR-310", "KMTR-412"}, ids)
}

func TestRouter_GetTrain(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/trains/KMTR-102", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var train models.Train
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &train))
	assert.Equal(t, "KMTR-102", train.TrainID)
	assert.Equal(t, "B2", train.StablingBay)
	assert.False(t, train.InIBL)
	assert.NotEmpty(t, train.Certificates)
}

func TestRouter_GetTrain_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/trains/KMTR-999", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, models.ProblemTypeNotFound, problem.Type)
	assert.Contains(t, problem.Detail, "KMTR-999")
}

func TestRouter_ScoreTrain(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:score", models.ScoreRequest{
		TrainID:            "KMTR-045",
		OperationalContext: models.OperationalContext{Date: "2024-12-20", Time: "05:30"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "KMTR-045", result.TrainID)
	assert.Equal(t, "2024-12-20", result.Date)
	assert.Equal(t, 57, result.Score)
	assert.Equal(t, "HOLD", result.Recommendation.Code)
	assert.Equal(t, []string{"Signalling certificate expired"}, result.Conflicts)
	require.Len(t, result.ConflictDetails, 1)
	assert.Equal(t, "CERTIFICATE_EXPIRED", result.ConflictDetails[0].Kind)
	assert.Equal(t, "signalling", result.ConflictDetails[0].Category)
}

func TestRouter_ScoreTrain_DefaultsToToday(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:score", models.ScoreRequest{TrainID: "KMTR-102"})

	require.Equal(t, http.StatusOK, w.Code)

	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "2024-12-20", result.Date)
	assert.Equal(t, 92, result.Score)
	assert.Equal(t, "PRIORITY", result.Recommendation.Code)
	assert.Empty(t, result.Conflicts)
}

func TestRouter_ScoreTrain_Validation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantFields []string
	}{
		{
			name:       "missing train id",
			body:       models.ScoreRequest{},
			wantFields: []string{"trainId"},
		},
		{
			name: "malformed date and time",
			body: models.ScoreRequest{
				TrainID:            "KMTR-102",
				OperationalContext: models.OperationalContext{Date: "20-12-2024", Time: "25:00"},
			},
			wantFields: []string{"operationalContext.date", "operationalContext.time"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := router.do(t, http.MethodPost, "/v1/induction:score", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			problem := decodeProblem(t, w)

			fields := make([]string, 0, len(problem.Errors))
			for _, fe := range problem.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestRouter_ScoreTrain_InvalidJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/induction:score", strings.NewReader(`{"trainId":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ScoreTrain_UnknownTrain(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:score", models.ScoreRequest{TrainID: "KMTR-999"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ScoreTrain_MalformedStoredDate(t *testing.T) {
	router := newTestRouter(t)
	require.NoError(t, router.fleet.Upsert(context.Background(), &scoring.TrainRecord{
		ID:           "KMTR-900",
		Certificates: []scoring.Certificate{{Category: "telecom"}},
		StablingBay:  "A1",
	}))

	w := router.do(t, http.MethodPost, "/v1/induction:score", models.ScoreRequest{TrainID: "KMTR-900"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	problem := decodeProblem(t, w)
	assert.Equal(t, models.ProblemTypeUnprocessable, problem.Type)
	assert.Contains(t, problem.Detail, "KMTR-900")
}

func TestRouter_ScoreTrain_RequiresJSONContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/induction:score", strings.NewReader("trainId=KMTR-102"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_RankFleet(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:rank", models.RankRequest{
		OperationalContext: models.OperationalContext{Date: "2024-12-20"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var ranking models.Ranking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranking))
	assert.Equal(t, "2024-12-20", ranking.Date)
	assert.Equal(t, 5, ranking.Considered)
	assert.Empty(t, ranking.Failures)

	ids := make([]string, 0, len(ranking.Items))
	for i, item := range ranking.Items {
		assert.Equal(t, i+1, item.Rank)
		ids = append(ids, item.TrainID)
	}
	assert.Equal(t, []string{"KMTR-221", "KMTR-102", "KMTR-412", "KMTR-045", "KMTR-310"}, ids)
	assert.True(t, ranking.Items[4].InIBL)
}

func TestRouter_RankFleet_AvailableOnly(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:rank", models.RankRequest{AvailableOnly: true})

	require.Equal(t, http.StatusOK, w.Code)

	var ranking models.Ranking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranking))
	assert.Equal(t, 4, ranking.Considered)
	for _, item := range ranking.Items {
		assert.False(t, item.InIBL)
	}
}

func TestRouter_RankFleet_EmptyBody(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:rank", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var ranking models.Ranking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranking))
	assert.Equal(t, "2024-12-20", ranking.Date)
	assert.Len(t, ranking.Items, 5)
}

func TestRouter_OptimizeFleet(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:optimize", models.OptimizeRequest{Date: "2024-12-20"})

	require.Equal(t, http.StatusOK, w.Code)

	var summary models.FleetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "2024-12-20", summary.Date)
	assert.Equal(t, 5, summary.TotalTrains)
	assert.Equal(t, 4, summary.AvailableTrains)
	assert.Len(t, summary.Recommendations, 4)
	assert.Equal(t, scoring.ScoreBuckets{Optimal: 3, Good: 0, Caution: 1, Avoid: 0}, summary.Summary)
}

func TestRouter_OptimizeFleet_MalformedDate(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/induction:optimize", models.OptimizeRequest{Date: "2024-13-40"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	problem := decodeProblem(t, w)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "date", problem.Errors[0].Field)
}

func TestRouter_Schedules(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/schedules", models.ScheduleCreateRequest{
		TrainID: "KMTR-102",
		Station: "Aluva",
		Route:   "Aluva-Pettah",
		Date:    "2024-12-20",
		Time:    "05:30",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var created models.ScheduleEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.ID, "sch_"))
	assert.Equal(t, "/v1/schedules/"+created.ID, w.Header().Get("Location"))
	assert.Equal(t, 92, created.Score)
	assert.Equal(t, "scheduled", created.Status)
	assert.Equal(t, "PRIORITY", created.Recommendation.Code)

	w = router.do(t, http.MethodPost, "/v1/schedules", models.ScheduleCreateRequest{
		TrainID: "KMTR-045",
		Station: "Edappally",
		Route:   "Aluva-Pettah",
		Date:    "2024-12-20",
		Time:    "06:10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = router.do(t, http.MethodGet, "/v1/schedules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.ScheduleEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	w = router.do(t, http.MethodGet, "/v1/schedules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ScheduleList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "KMTR-102", list.Items[0].TrainID)
	assert.Equal(t, "KMTR-045", list.Items[1].TrainID)
	assert.Equal(t, "pending_review", list.Items[1].Status)

	w = router.do(t, http.MethodGet, "/v1/schedules?trainId=KMTR-045", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "KMTR-045", list.Items[0].TrainID)
}

func TestRouter_CreateSchedule_Errors(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodPost, "/v1/schedules", models.ScheduleCreateRequest{TrainID: "KMTR-102"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	problem := decodeProblem(t, w)
	assert.Len(t, problem.Errors, 4)

	w = router.do(t, http.MethodPost, "/v1/schedules", models.ScheduleCreateRequest{
		TrainID: "KMTR-999",
		Station: "Aluva",
		Route:   "Aluva-Pettah",
		Date:    "2024-12-20",
		Time:    "05:30",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ListSchedules_InvalidQuery(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/schedules?date=yesterday&limit=0", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	problem := decodeProblem(t, w)
	assert.Len(t, problem.Errors, 2)
}

func TestRouter_GetSchedule_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/schedules/sch_missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_GetEnums(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/metadata/enums", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var enums models.Enums
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enums))
	require.Len(t, enums.Recommendations, 5)
	assert.Equal(t, "PRIORITY", enums.Recommendations[0].Code)
	assert.Equal(t, "HOLD — resolve conflicts before induction", enums.Recommendations[4].Label)
	assert.Equal(t, []string{"scheduled", "pending_review"}, enums.ScheduleStatus)
	assert.NotEmpty(t, enums.StablingBays)
	for i := 1; i < len(enums.StablingBays); i++ {
		assert.Less(t, enums.StablingBays[i-1].Bay, enums.StablingBays[i].Bay)
	}
}

func TestRouter_RankingRateLimit(t *testing.T) {
	router := newTestRouter(t, func(rc *api.RouterConfig) {
		rc.RankingRateLimit = middleware.PerMinute(2)
	})

	for i := 0; i < 2; i++ {
		w := router.do(t, http.MethodPost, "/v1/induction:rank", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := router.do(t, http.MethodPost, "/v1/induction:optimize", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other endpoints have their own limiter.
	w = router.do(t, http.MethodGet, "/v1/trains", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_NotFoundRoute(t *testing.T) {
	router := newTestRouter(t)

	w := router.do(t, http.MethodGet, "/v1/unknown", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

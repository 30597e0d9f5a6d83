package response_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/api/middleware"
	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/api/response"
)

// requestWithID returns a request whose context carries the given request ID,
// as set by the RequestID middleware.
func requestWithID(t *testing.T, method, path, requestID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, processed)
	return processed
}

func TestJSON_WritesBodyAndHeaders(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/trains/KMTR-102", "req-102")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]int{"score": 92})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-102", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
	assert.JSONEq(t, `{"score":92}`, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/trains", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, []string{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestJSON_NilData(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/ops/health", "")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.Equal(t, "0", rec.Header().Get("Content-Length"))
}

func TestJSON_EncodingFailure(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/induction:rank", "req-bad")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]interface{}{"score": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	assert.Equal(t, "req-bad", problem.TraceID)
	assert.Equal(t, "/v1/induction:rank", problem.Instance)
}

func TestCreated_SetsLocation(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/schedules", "req-sch")
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/schedules/sch_123", map[string]string{"id": "sch_123"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/schedules/sch_123", rec.Header().Get("Location"))
	assert.Equal(t, "req-sch", rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"id":"sch_123"}`, rec.Body.String())
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, *http.Request)
		wantStatus int
		wantType   string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "trainId", Message: "is required", Code: "REQUIRED"}})
			},
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeValidation,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, `train "KMTR-999" not found`) },
			wantStatus: http.StatusNotFound,
			wantType:   models.ProblemTypeNotFound,
		},
		{
			name: "unprocessable",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.Unprocessable(w, r, "certificate date malformed")
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   models.ProblemTypeUnprocessable,
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") },
			wantStatus: http.StatusInternalServerError,
			wantType:   models.ProblemTypeInternal,
		},
		{
			name: "unavailable",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.ServiceUnavailable(w, r, "fleet store unavailable")
			},
			wantStatus: http.StatusServiceUnavailable,
			wantType:   models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodPost, "/v1/induction:score", "req-7")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem models.Problem
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "req-7", problem.TraceID)
			assert.Equal(t, "/v1/induction:score", problem.Instance)
		})
	}
}

func TestBadRequest_ListsFieldErrors(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/schedules", "")
	rec := httptest.NewRecorder()

	response.BadRequest(rec, req, "validation failed", []models.FieldError{
		{Field: "station", Message: "is required", Code: "REQUIRED"},
		{Field: "date", Message: "must be YYYY-MM-DD", Code: "FORMAT"},
	})

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Len(t, problem.Errors, 2)
	assert.Equal(t, "station", problem.Errors[0].Field)
	assert.Equal(t, "FORMAT", problem.Errors[1].Code)
}

func TestError_KeepsExplicitInstance(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/schedules/sch_1", "")
	rec := httptest.NewRecorder()

	problem := models.NewNotFound("trace", "schedule not found")
	problem.Instance = "/v1/schedules/sch_1#entry"
	response.Error(rec, req, problem)

	var got models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "/v1/schedules/sch_1#entry", got.Instance)
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, middleware.GetRequestID(context.Background()))
}

package induction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/cache"
	"github.com/traininduction/traininduction/internal/events"
	"github.com/traininduction/traininduction/internal/fleet"
	"github.com/traininduction/traininduction/internal/induction"
	"github.com/traininduction/traininduction/internal/scoring"
)

var serviceDate = civil.Date{Year: 2024, Month: 12, Day: 20}

type fixture struct {
	svc       *induction.Service
	repo      *fleet.InMemoryRepository
	cache     *cache.InMemoryCache
	publisher *events.MemoryPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	cfg := scoring.DefaultConfig()
	cfg.Clock = func() time.Time { return time.Date(2024, 12, 20, 5, 0, 0, 0, time.UTC) }
	engine, err := scoring.NewEngine(cfg)
	require.NoError(t, err)

	trains, err := fleet.DefaultFleet()
	require.NoError(t, err)

	f := fixture{
		repo:      fleet.NewInMemoryRepository(trains...),
		cache:     cache.NewInMemoryCache(time.Minute),
		publisher: events.NewMemoryPublisher(),
	}
	f.svc, err = induction.NewService(induction.ServiceConfig{
		Engine:      engine,
		Fleet:       f.repo,
		Cache:       f.cache,
		Publisher:   f.publisher,
		Concurrency: 2,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return f
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := induction.NewService(induction.ServiceConfig{})
	assert.Error(t, err)

	_, err = induction.NewService(induction.ServiceConfig{Engine: scoring.MustNewEngine(scoring.DefaultConfig())})
	assert.Error(t, err)
}

func TestService_ListAndGetTrains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trains, err := f.svc.ListTrains(ctx)
	require.NoError(t, err)
	assert.Len(t, trains, 5)

	tr, err := f.svc.GetTrain(ctx, "KMTR-102")
	require.NoError(t, err)
	assert.Equal(t, "B2", tr.StablingBay)

	_, err = f.svc.GetTrain(ctx, "KMTR-999")
	assert.ErrorIs(t, err, fleet.ErrTrainNotFound)
}

func TestService_ScoreTrain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		trainID   string
		score     int
		rec       scoring.Recommendation
		conflicts []string
	}{
		{"KMTR-045", 57, scoring.RecommendationHold, []string{"Signalling certificate expired"}},
		{"KMTR-102", 92, scoring.RecommendationPriority, []string{}},
		{"KMTR-221", 93, scoring.RecommendationPriority, []string{}},
		{"KMTR-310", 0, scoring.RecommendationHold, []string{
			"Rolling certificate expired",
			"Signalling certificate expired",
			"Telecom certificate expired",
			"Multiple open job cards",
			"Train in IBL - maintenance required",
		}},
		{"KMTR-412", 85, scoring.RecommendationPriority, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.trainID, func(t *testing.T) {
			result, err := f.svc.ScoreTrain(ctx, tt.trainID, scoring.OperationalContext{Date: serviceDate})
			require.NoError(t, err)
			assert.Equal(t, tt.score, result.Score)
			assert.Equal(t, tt.rec, result.Recommendation)
			assert.Equal(t, tt.conflicts, result.ConflictMessages())
		})
	}
}

func TestService_ScoreTrain_DefaultsToToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	today, err := f.svc.ScoreTrain(ctx, "KMTR-045", scoring.OperationalContext{})
	require.NoError(t, err)
	explicit, err := f.svc.ScoreTrain(ctx, "KMTR-045", scoring.OperationalContext{Date: serviceDate})
	require.NoError(t, err)
	assert.Equal(t, explicit, today)
}

func TestService_ScoreTrain_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oc := scoring.OperationalContext{Date: serviceDate}

	first, err := f.svc.ScoreTrain(ctx, "KMTR-102", oc)
	require.NoError(t, err)

	rec, err := f.repo.Get(ctx, "KMTR-102")
	require.NoError(t, err)
	key, err := cache.Key("v1", *rec, serviceDate)
	require.NoError(t, err)

	cached, ok, err := f.cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, cached)

	// A changed record produces a different key and a fresh evaluation.
	rec.OpenJobCards = 4
	require.NoError(t, f.repo.Upsert(ctx, rec))
	second, err := f.svc.ScoreTrain(ctx, "KMTR-102", oc)
	require.NoError(t, err)
	assert.Less(t, second.Score, first.Score)
}

func TestService_ScoreTrain_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScoreTrain(ctx, "KMTR-999", scoring.OperationalContext{})
	assert.ErrorIs(t, err, fleet.ErrTrainNotFound)

	require.NoError(t, f.repo.Upsert(ctx, &scoring.TrainRecord{
		ID:           "KMTR-BAD",
		Certificates: []scoring.Certificate{{Category: "rolling"}},
	}))
	_, err = f.svc.ScoreTrain(ctx, "KMTR-BAD", scoring.OperationalContext{})
	assert.ErrorIs(t, err, scoring.ErrMalformedDate)
	assert.False(t, errors.Is(err, fleet.ErrTrainNotFound))
}

func TestService_RankFleet(t *testing.T) {
	f := newFixture(t)

	ranking, err := f.svc.RankFleet(context.Background(), scoring.OperationalContext{Date: serviceDate}, false)
	require.NoError(t, err)

	var order []string
	for _, tr := range ranking.Trains {
		order = append(order, tr.TrainID)
	}
	assert.Equal(t, []string{"KMTR-221", "KMTR-102", "KMTR-412", "KMTR-045", "KMTR-310"}, order)
	assert.Equal(t, 5, ranking.Considered)
	assert.Empty(t, ranking.Failures)
	assert.True(t, ranking.Trains[4].InMaintenanceHold)

	available, err := f.svc.RankFleet(context.Background(), scoring.OperationalContext{Date: serviceDate}, true)
	require.NoError(t, err)
	assert.Equal(t, 4, available.Considered)
}

func TestService_OptimizeFleet(t *testing.T) {
	f := newFixture(t)

	summary, err := f.svc.OptimizeFleet(context.Background(), serviceDate)
	require.NoError(t, err)

	assert.Equal(t, serviceDate, summary.Date)
	assert.Equal(t, 5, summary.TotalTrains)
	assert.Equal(t, 4, summary.AvailableTrains)
	assert.Len(t, summary.Recommendations, 4)
	assert.Equal(t, scoring.ScoreBuckets{Optimal: 3, Good: 0, Caution: 1, Avoid: 0}, summary.Buckets)

	published := f.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeFleetOptimized, published[0].Type)
	assert.Equal(t, "2024-12-20", published[0].Subject)
}

func TestService_Ping(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Ping(context.Background()))
}

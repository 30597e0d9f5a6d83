// Package induction is the boundary between transports and the scoring engine.
// It fetches train records, evaluates them and records telemetry.
package induction

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/traininduction/traininduction/internal/cache"
	"github.com/traininduction/traininduction/internal/events"
	"github.com/traininduction/traininduction/internal/fleet"
	"github.com/traininduction/traininduction/internal/scoring"
)

const instrumentationName = "github.com/traininduction/traininduction/internal/induction"

// ServiceConfig holds the dependencies of a Service.
type ServiceConfig struct {
	Engine *scoring.Engine
	Fleet  fleet.Repository

	// Cache is optional. CacheNamespace must change whenever the engine
	// configuration changes.
	Cache          cache.ScoreCache
	CacheNamespace string

	// Publisher receives fleet.optimized events. Nil disables publishing.
	Publisher events.Publisher

	// Concurrency bounds parallel evaluations when ranking.
	// Default: 4
	Concurrency int

	Logger zerolog.Logger
}

// Service evaluates trains held in a fleet repository.
type Service struct {
	engine      *scoring.Engine
	fleet       fleet.Repository
	cache       cache.ScoreCache
	namespace   string
	publisher   events.Publisher
	concurrency int
	logger      zerolog.Logger

	tracer      trace.Tracer
	evaluations metric.Int64Counter
	scores      metric.Int64Histogram
	failures    metric.Int64Counter
}

// NewService creates a new induction service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Engine == nil {
		return nil, errors.New("induction: engine is required")
	}
	if cfg.Fleet == nil {
		return nil, errors.New("induction: fleet repository is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NoopPublisher{}
	}
	if cfg.CacheNamespace == "" {
		cfg.CacheNamespace = "v1"
	}

	meter := otel.Meter(instrumentationName)

	evaluations, err := meter.Int64Counter(
		"induction.evaluations",
		metric.WithDescription("Number of train evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, err
	}

	scores, err := meter.Int64Histogram(
		"induction.score",
		metric.WithDescription("Distribution of induction scores"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(20, 40, 60, 80, 100),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"induction.evaluation_failures",
		metric.WithDescription("Number of trains that could not be evaluated"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		engine:      cfg.Engine,
		fleet:       cfg.Fleet,
		cache:       cfg.Cache,
		namespace:   cfg.CacheNamespace,
		publisher:   cfg.Publisher,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		tracer:      otel.Tracer(instrumentationName),
		evaluations: evaluations,
		scores:      scores,
		failures:    failures,
	}, nil
}

// Engine returns the scoring engine.
func (s *Service) Engine() *scoring.Engine {
	return s.engine
}

// ListTrains returns the fleet in store order.
func (s *Service) ListTrains(ctx context.Context) ([]scoring.TrainRecord, error) {
	ctx, span := s.tracer.Start(ctx, "induction.ListTrains")
	defer span.End()

	trains, err := s.fleet.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("list fleet: %w", err)
	}
	span.SetAttributes(attribute.Int("fleet.size", len(trains)))
	return trains, nil
}

// GetTrain returns one train. Unknown IDs return fleet.ErrTrainNotFound.
func (s *Service) GetTrain(ctx context.Context, trainID string) (*scoring.TrainRecord, error) {
	ctx, span := s.tracer.Start(ctx, "induction.GetTrain",
		trace.WithAttributes(attribute.String("train.id", trainID)))
	defer span.End()

	t, err := s.fleet.Get(ctx, trainID)
	if err != nil {
		if !errors.Is(err, fleet.ErrTrainNotFound) {
			recordError(span, err)
		}
		return nil, err
	}
	return t, nil
}

// ScoreTrain evaluates one stored train. Unknown IDs return
// fleet.ErrTrainNotFound; malformed stored dates return an error wrapping
// scoring.ErrMalformedDate.
func (s *Service) ScoreTrain(ctx context.Context, trainID string, oc scoring.OperationalContext) (scoring.Result, error) {
	ctx, span := s.tracer.Start(ctx, "induction.ScoreTrain",
		trace.WithAttributes(attribute.String("train.id", trainID)))
	defer span.End()

	rec, err := s.fleet.Get(ctx, trainID)
	if err != nil {
		if !errors.Is(err, fleet.ErrTrainNotFound) {
			recordError(span, err)
		}
		return scoring.Result{}, err
	}

	ref := s.engine.ReferenceDate(oc)
	result, err := s.evaluate(ctx, *rec, scoring.OperationalContext{Date: ref, Time: oc.Time})
	if err != nil {
		recordError(span, err)
		return scoring.Result{}, err
	}

	span.SetAttributes(
		attribute.Int("induction.score", result.Score),
		attribute.String("induction.recommendation", result.Recommendation.Code()),
	)
	return result, nil
}

// evaluate scores rec, reading and filling the cache when one is configured.
func (s *Service) evaluate(ctx context.Context, rec scoring.TrainRecord, oc scoring.OperationalContext) (scoring.Result, error) {
	var key string
	if s.cache != nil {
		k, err := cache.Key(s.namespace, rec, oc.Date)
		if err == nil {
			key = k
			if cached, ok, err := s.cache.Get(ctx, key); err != nil {
				s.logger.Warn().Err(err).Str("train_id", rec.ID).Msg("score cache read failed")
			} else if ok {
				s.recordEvaluation(ctx, cached, true)
				return cached, nil
			}
		}
	}

	result, err := s.engine.Score(rec, oc)
	if err != nil {
		s.failures.Add(ctx, 1)
		return scoring.Result{}, fmt.Errorf("train %s: %w", rec.ID, err)
	}
	s.recordEvaluation(ctx, result, false)

	if key != "" {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.Warn().Err(err).Str("train_id", rec.ID).Msg("score cache write failed")
		}
	}
	return result, nil
}

// RankFleet evaluates the whole fleet and orders it for induction.
func (s *Service) RankFleet(ctx context.Context, oc scoring.OperationalContext, availableOnly bool) (*scoring.Ranking, error) {
	ctx, span := s.tracer.Start(ctx, "induction.RankFleet",
		trace.WithAttributes(attribute.Bool("induction.available_only", availableOnly)))
	defer span.End()

	trains, err := s.fleet.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("list fleet: %w", err)
	}

	ranking, err := s.engine.Rank(ctx, trains, oc, scoring.RankOptions{
		AvailableOnly: availableOnly,
		Concurrency:   s.concurrency,
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.recordRanked(ctx, ranking.Trains, ranking.Failures)
	span.SetAttributes(
		attribute.Int("fleet.considered", ranking.Considered),
		attribute.Int("fleet.failures", len(ranking.Failures)),
	)
	return ranking, nil
}

// OptimizeFleet summarises the fleet's induction readiness on date.
// The zero date means the evaluation date.
func (s *Service) OptimizeFleet(ctx context.Context, date civil.Date) (*scoring.FleetSummary, error) {
	ctx, span := s.tracer.Start(ctx, "induction.OptimizeFleet")
	defer span.End()

	trains, err := s.fleet.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("list fleet: %w", err)
	}

	summary, err := s.engine.Optimize(ctx, trains, date, s.concurrency)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.recordRanked(ctx, summary.Recommendations, summary.Failures)
	span.SetAttributes(
		attribute.String("induction.date", summary.Date.String()),
		attribute.Int("fleet.available", summary.AvailableTrains),
	)

	s.logger.Info().
		Str("date", summary.Date.String()).
		Int("total_trains", summary.TotalTrains).
		Int("available_trains", summary.AvailableTrains).
		Int("optimal", summary.Buckets.Optimal).
		Int("failures", len(summary.Failures)).
		Msg("fleet optimized")

	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeFleetOptimized,
		Subject:    summary.Date.String(),
		OccurredAt: s.engine.Now(),
		Data:       summary.Buckets,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish optimization event")
	}

	return summary, nil
}

// Ping checks the fleet store and, when configured, the cache.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.fleet.Ping(ctx); err != nil {
		return fmt.Errorf("fleet store: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("score cache: %w", err)
		}
	}
	return nil
}

func (s *Service) recordEvaluation(ctx context.Context, r scoring.Result, cached bool) {
	attrs := metric.WithAttributes(
		attribute.String("recommendation", r.Recommendation.Code()),
		attribute.Bool("cached", cached),
	)
	s.evaluations.Add(ctx, 1, attrs)
	s.scores.Record(ctx, int64(r.Score), attrs)
}

func (s *Service) recordRanked(ctx context.Context, trains []scoring.RankedTrain, failures []scoring.EvaluationFailure) {
	for _, t := range trains {
		s.recordEvaluation(ctx, t.Result, false)
	}
	if len(failures) > 0 {
		s.failures.Add(ctx, int64(len(failures)))
		for _, f := range failures {
			s.logger.Warn().Err(f.Err).Str("train_id", f.TrainID).Msg("train could not be evaluated")
		}
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

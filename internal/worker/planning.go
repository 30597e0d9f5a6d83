package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/traininduction/traininduction/internal/scoring"
)

// FleetOptimizer produces a fleet summary for a service day.
type FleetOptimizer interface {
	OptimizeFleet(ctx context.Context, date civil.Date) (*scoring.FleetSummary, error)
	Ping(ctx context.Context) error
}

// PlanningJob optimizes the fleet for upcoming service days.
type PlanningJob struct {
	config    PlanningConfig
	logger    zerolog.Logger
	optimizer FleetOptimizer

	metrics *PlanningMetrics
}

// PlanningMetrics tracks planning job statistics.
type PlanningMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns      int64
	DaysPlanned    int64
	FailedDays     int64
	HealthChecks   int64
	FailedHealth   int64
	TrainFailures  int64
	LastAvailable  int
	LastTotal      int
	LastPlannedDay civil.Date

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// PlanningJobConfig holds configuration for creating a PlanningJob.
type PlanningJobConfig struct {
	Config    PlanningConfig
	Logger    zerolog.Logger
	Optimizer FleetOptimizer
}

// NewPlanningJob creates a new planning job.
func NewPlanningJob(cfg PlanningJobConfig) *PlanningJob {
	config := cfg.Config
	config.setDefaults()

	return &PlanningJob{
		config:    config,
		logger:    cfg.Logger,
		optimizer: cfg.Optimizer,
		metrics:   &PlanningMetrics{},
	}
}

// PlanningResult contains the result of a planning run.
type PlanningResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalDays  int
	Successful int
	Failed     int
	// Summaries are ordered by date.
	Summaries []*scoring.FleetSummary
	Errors    []PlanningError
}

// PlanningError represents a day that could not be planned.
type PlanningError struct {
	Date  civil.Date
	Error string
}

// Run plans every day of the configured horizon starting today.
func (j *PlanningJob) Run(ctx context.Context) *PlanningResult {
	today := civil.DateOf(j.config.Now())
	return j.RunFor(ctx, j.config.Dates(today)...)
}

// RunFor plans the given days.
func (j *PlanningJob) RunFor(ctx context.Context, dates ...civil.Date) *PlanningResult {
	startTime := time.Now()
	result := &PlanningResult{
		StartTime: startTime,
		TotalDays: len(dates),
	}

	j.logger.Info().
		Int("days", result.TotalDays).
		Int("concurrency", j.config.Concurrency).
		Msg("starting fleet planning job")

	// Create work channels
	datesChan := make(chan civil.Date, len(dates))
	resultsChan := make(chan dayResult, len(dates))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.planWorker(ctx, datesChan, resultsChan)
		}()
	}

	for _, d := range dates {
		datesChan <- d
	}
	close(datesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for dr := range resultsChan {
		if dr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, PlanningError{Date: dr.date, Error: dr.err.Error()})
			continue
		}
		result.Successful++
		result.Summaries = append(result.Summaries, dr.summary)
	}

	sort.Slice(result.Summaries, func(a, b int) bool {
		return result.Summaries[a].Date.Before(result.Summaries[b].Date)
	})
	sort.Slice(result.Errors, func(a, b int) bool {
		return result.Errors[a].Date.Before(result.Errors[b].Date)
	})

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("fleet planning job completed")

	return result
}

type dayResult struct {
	date    civil.Date
	summary *scoring.FleetSummary
	err     error
}

func (j *PlanningJob) planWorker(ctx context.Context, dates <-chan civil.Date, results chan<- dayResult) {
	for date := range dates {
		if err := ctx.Err(); err != nil {
			results <- dayResult{date: date, err: err}
			continue
		}
		results <- j.planDay(ctx, date)
	}
}

func (j *PlanningJob) planDay(ctx context.Context, date civil.Date) dayResult {
	dayCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	summary, err := j.optimizer.OptimizeFleet(dayCtx, date)
	if err != nil {
		j.logger.Error().Err(err).Str("date", date.String()).Msg("fleet planning failed")
		return dayResult{date: date, err: err}
	}
	return dayResult{date: date, summary: summary}
}

// HealthCheck verifies the fleet store and cache are reachable.
func (j *PlanningJob) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	err := j.optimizer.Ping(checkCtx)

	j.metrics.mu.Lock()
	j.metrics.HealthChecks++
	if err != nil {
		j.metrics.FailedHealth++
	}
	j.metrics.mu.Unlock()

	return err
}

// Loop runs the job immediately and then every interval until ctx is done.
func (j *PlanningJob) Loop(ctx context.Context, interval time.Duration) {
	j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("planning loop stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

func (j *PlanningJob) updateMetrics(result *PlanningResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.DaysPlanned += int64(result.Successful)
	j.metrics.FailedDays += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration

	for _, s := range result.Summaries {
		j.metrics.TrainFailures += int64(len(s.Failures))
	}
	if n := len(result.Summaries); n > 0 {
		first := result.Summaries[0]
		j.metrics.LastPlannedDay = first.Date
		j.metrics.LastAvailable = first.AvailableTrains
		j.metrics.LastTotal = first.TotalTrains
	}
}

// GetMetrics returns a copy of the current metrics.
func (j *PlanningJob) GetMetrics() PlanningMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PlanningMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		DaysPlanned:     j.metrics.DaysPlanned,
		FailedDays:      j.metrics.FailedDays,
		HealthChecks:    j.metrics.HealthChecks,
		FailedHealth:    j.metrics.FailedHealth,
		TrainFailures:   j.metrics.TrainFailures,
		LastAvailable:   j.metrics.LastAvailable,
		LastTotal:       j.metrics.LastTotal,
		LastPlannedDay:  j.metrics.LastPlannedDay,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PlanningJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"days_planned":      m.DaysPlanned,
		"failed_days":       m.FailedDays,
		"health_checks":     m.HealthChecks,
		"failed_health":     m.FailedHealth,
		"train_failures":    m.TrainFailures,
		"last_planned_day":  scoring.FormatDate(m.LastPlannedDay),
		"last_available":    m.LastAvailable,
		"last_total":        m.LastTotal,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}

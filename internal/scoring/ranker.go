package scoring

import (
	"context"
	"runtime"
	"slices"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"
)

// SummaryTopN is the number of trains listed in a fleet summary.
const SummaryTopN = 10

// RankOptions controls a fleet ranking.
type RankOptions struct {
	// AvailableOnly excludes trains in maintenance hold before scoring.
	AvailableOnly bool
	// Concurrency bounds parallel evaluations. Defaults to GOMAXPROCS.
	Concurrency int
}

// RankedTrain is one train's evaluation within a ranking.
type RankedTrain struct {
	TrainID           string
	InMaintenanceHold bool
	Result            Result
}

// EvaluationFailure records a train that could not be scored.
type EvaluationFailure struct {
	TrainID string
	Err     error
}

// Ranking is the ordered outcome of evaluating a fleet.
type Ranking struct {
	Date civil.Date
	// Considered counts trains evaluated after filtering.
	Considered int
	Trains     []RankedTrain
	Failures   []EvaluationFailure
}

// ScoreBuckets counts ranked trains by score band.
type ScoreBuckets struct {
	Optimal int `json:"optimal"`
	Good    int `json:"good"`
	Caution int `json:"caution"`
	Avoid   int `json:"avoid"`
}

// FleetSummary is the fleet-level optimization view for one date.
type FleetSummary struct {
	Date            civil.Date
	TotalTrains     int
	AvailableTrains int
	Recommendations []RankedTrain
	Buckets         ScoreBuckets
	Failures        []EvaluationFailure
}

// Rank scores every train against oc and orders them conflict-free first,
// then by score descending. Ties keep fleet order. A train that fails to
// score is reported in Failures and does not abort the ranking; only ctx
// cancellation does.
func (e *Engine) Rank(ctx context.Context, fleet []TrainRecord, oc OperationalContext, opts RankOptions) (*Ranking, error) {
	ref := e.ReferenceDate(oc)

	candidates := fleet
	if opts.AvailableOnly {
		candidates = make([]TrainRecord, 0, len(fleet))
		for _, rec := range fleet {
			if !rec.InMaintenanceHold {
				candidates = append(candidates, rec)
			}
		}
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(candidates))
	errs := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := candidates[i]
			if err := validateRecord(rec); err != nil {
				errs[i] = err
				return nil
			}
			results[i] = e.score(rec, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranking := &Ranking{
		Date:       ref,
		Considered: len(candidates),
		Trains:     make([]RankedTrain, 0, len(candidates)),
	}
	for i, rec := range candidates {
		if errs[i] != nil {
			ranking.Failures = append(ranking.Failures, EvaluationFailure{TrainID: rec.ID, Err: errs[i]})
			continue
		}
		ranking.Trains = append(ranking.Trains, RankedTrain{
			TrainID:           rec.ID,
			InMaintenanceHold: rec.InMaintenanceHold,
			Result:            results[i],
		})
	}

	slices.SortStableFunc(ranking.Trains, compareRanked)
	return ranking, nil
}

// compareRanked orders conflict-free trains first, then higher scores first.
func compareRanked(a, b RankedTrain) int {
	af, bf := a.Result.ConflictFree(), b.Result.ConflictFree()
	if af != bf {
		if af {
			return -1
		}
		return 1
	}
	return b.Result.Score - a.Result.Score
}

// Optimize ranks the trains available on date and summarizes the outcome.
func (e *Engine) Optimize(ctx context.Context, fleet []TrainRecord, date civil.Date, concurrency int) (*FleetSummary, error) {
	ranking, err := e.Rank(ctx, fleet, OperationalContext{Date: date}, RankOptions{
		AvailableOnly: true,
		Concurrency:   concurrency,
	})
	if err != nil {
		return nil, err
	}

	summary := &FleetSummary{
		Date:            ranking.Date,
		TotalTrains:     len(fleet),
		AvailableTrains: ranking.Considered,
		Buckets:         Bucket(ranking.Trains),
		Failures:        ranking.Failures,
	}
	top := ranking.Trains
	if len(top) > SummaryTopN {
		top = top[:SummaryTopN]
	}
	summary.Recommendations = top
	return summary, nil
}

// Bucket counts trains by score band: 80+ optimal, 60-79 good, 40-59 caution,
// below 40 avoid.
func Bucket(trains []RankedTrain) ScoreBuckets {
	var b ScoreBuckets
	for _, t := range trains {
		switch s := t.Result.Score; {
		case s >= PriorityThreshold:
			b.Optimal++
		case s >= ReadyThreshold:
			b.Good++
		case s >= CautionThreshold:
			b.Caution++
		default:
			b.Avoid++
		}
	}
	return b
}

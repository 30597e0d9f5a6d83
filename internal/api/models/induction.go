package models

import "github.com/traininduction/traininduction/internal/scoring"

// OperationalContext is the reference date and time of a request.
type OperationalContext struct {
	Date string `json:"date,omitempty"`
	Time string `json:"time,omitempty"`
}

// ScoreRequest is the body of POST /v1/induction:score.
type ScoreRequest struct {
	TrainID            string             `json:"trainId"`
	OperationalContext OperationalContext `json:"operationalContext"`
}

// RankRequest is the body of POST /v1/induction:rank.
type RankRequest struct {
	OperationalContext OperationalContext `json:"operationalContext"`
	AvailableOnly      bool               `json:"availableOnly"`
}

// OptimizeRequest is the body of POST /v1/induction:optimize.
type OptimizeRequest struct {
	Date string `json:"date,omitempty"`
}

// Recommendation is a classified outcome with its display label.
type Recommendation struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Conflict is a structured blocking condition.
type Conflict struct {
	Kind     string `json:"kind"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
}

// ScoreResult is the evaluation of one train.
type ScoreResult struct {
	TrainID         string            `json:"trainId"`
	Date            string            `json:"date"`
	Score           int               `json:"score"`
	Breakdown       scoring.Breakdown `json:"breakdown"`
	Conflicts       []string          `json:"conflicts"`
	ConflictDetails []Conflict        `json:"conflictDetails"`
	Recommendation  Recommendation    `json:"recommendation"`
}

// RankedTrain is one entry of a ranking.
type RankedTrain struct {
	Rank           int               `json:"rank"`
	TrainID        string            `json:"trainId"`
	Score          int               `json:"score"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	Conflicts      []string          `json:"conflicts"`
	Recommendation Recommendation    `json:"recommendation"`
	InIBL          bool              `json:"inIBL"`
}

// EvaluationFailure reports a train that could not be evaluated.
type EvaluationFailure struct {
	TrainID string `json:"trainId"`
	Error   string `json:"error"`
}

// Ranking is the response of POST /v1/induction:rank.
type Ranking struct {
	Date       string              `json:"date"`
	Considered int                 `json:"considered"`
	Items      []RankedTrain       `json:"items"`
	Failures   []EvaluationFailure `json:"failures"`
}

// FleetSummary is the response of POST /v1/induction:optimize.
type FleetSummary struct {
	Date            string               `json:"date"`
	TotalTrains     int                  `json:"totalTrains"`
	AvailableTrains int                  `json:"availableTrains"`
	Recommendations []RankedTrain        `json:"recommendations"`
	Summary         scoring.ScoreBuckets `json:"summary"`
	Failures        []EvaluationFailure  `json:"failures"`
}

// NewConflicts converts structured conflicts.
func NewConflicts(conflicts []scoring.Conflict) []Conflict {
	out := make([]Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, Conflict{Kind: string(c.Kind), Category: c.Category, Message: c.Message})
	}
	return out
}

// NewScoreResult converts a single evaluation.
func NewScoreResult(trainID string, date string, r scoring.Result) ScoreResult {
	return ScoreResult{
		TrainID:         trainID,
		Date:            date,
		Score:           r.Score,
		Breakdown:       r.Breakdown,
		Conflicts:       r.ConflictMessages(),
		ConflictDetails: NewConflicts(r.Conflicts),
		Recommendation:  NewRecommendation(r.Recommendation),
	}
}

// NewRanking converts a fleet ranking.
func NewRanking(r *scoring.Ranking) Ranking {
	return Ranking{
		Date:       scoring.FormatDate(r.Date),
		Considered: r.Considered,
		Items:      newRankedTrains(r.Trains),
		Failures:   newFailures(r.Failures),
	}
}

// NewFleetSummary converts an optimization summary.
func NewFleetSummary(s *scoring.FleetSummary) FleetSummary {
	return FleetSummary{
		Date:            scoring.FormatDate(s.Date),
		TotalTrains:     s.TotalTrains,
		AvailableTrains: s.AvailableTrains,
		Recommendations: newRankedTrains(s.Recommendations),
		Summary:         s.Buckets,
		Failures:        newFailures(s.Failures),
	}
}

func newRankedTrains(trains []scoring.RankedTrain) []RankedTrain {
	out := make([]RankedTrain, 0, len(trains))
	for i, t := range trains {
		out = append(out, RankedTrain{
			Rank:           i + 1,
			TrainID:        t.TrainID,
			Score:          t.Result.Score,
			Breakdown:      t.Result.Breakdown,
			Conflicts:      t.Result.ConflictMessages(),
			Recommendation: NewRecommendation(t.Result.Recommendation),
			InIBL:          t.InMaintenanceHold,
		})
	}
	return out
}

func newFailures(failures []scoring.EvaluationFailure) []EvaluationFailure {
	out := make([]EvaluationFailure, 0, len(failures))
	for _, f := range failures {
		out = append(out, EvaluationFailure{TrainID: f.TrainID, Error: f.Err.Error()})
	}
	return out
}

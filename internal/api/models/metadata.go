package models

import "github.com/traininduction/traininduction/internal/scoring"

// StablingBay describes one known bay and its efficiency.
type StablingBay struct {
	Bay        string  `json:"bay"`
	Efficiency float64 `json:"efficiency"`
}

// Enums represents the enum values used by the API.
type Enums struct {
	Recommendations []Recommendation `json:"recommendations"`
	ConflictKinds   []string         `json:"conflictKinds"`
	ScheduleStatus  []string         `json:"scheduleStatus"`
	StablingBays    []StablingBay    `json:"stablingBays"`
}

// NewRecommendation converts a scoring recommendation.
func NewRecommendation(r scoring.Recommendation) Recommendation {
	return Recommendation{Code: r.Code(), Label: r.Label()}
}

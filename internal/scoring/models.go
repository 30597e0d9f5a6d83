// Package scoring evaluates rail vehicles for daily induction.
//
// The engine combines six independent sub-scores (fitness certificates, open job
// cards, branding contract progress, mileage balance, cleaning freshness and
// stabling geometry) into a bounded score, detects blocking conflicts, and maps
// the outcome to a Recommendation. Every evaluation is a pure function of a
// TrainRecord and an OperationalContext.
package scoring

import (
	"cloud.google.com/go/civil"
)

// TrainRecord is the per-train input to an evaluation.
// Zero-valued optional fields carry the neutral semantics documented per field.
type TrainRecord struct {
	ID      string
	SetSize int

	// Certificates are evaluated and reported in slice order.
	// An empty slice is valid and scores zero.
	Certificates []Certificate

	// JobCards lists open job card identifiers. OpenJobCards is the count used
	// for scoring and may be set without listing identifiers.
	JobCards     []string
	OpenJobCards int

	// Branding is nil when the train carries no advertising contract.
	Branding *BrandingContract

	CurrentMileage float64
	// TargetMileage of zero means the mileage dimension is satisfied.
	TargetMileage float64

	// LastCleaned is the zero Date when no cleaning has been recorded.
	LastCleaned civil.Date

	StablingBay string

	// InMaintenanceHold marks a train withdrawn to an inspection bay line (IBL).
	InMaintenanceHold bool
}

// Certificate is one fitness certificate category and its expiry date.
type Certificate struct {
	Category string
	Expires  civil.Date
}

// BrandingContract is an advertising obligation measured in service hours.
type BrandingContract struct {
	Advertiser     string
	RequiredHours  float64
	CompletedHours float64
}

// OperationalContext carries the reference date and time of an evaluation.
type OperationalContext struct {
	// Date is the reference date. The zero Date means the evaluation date.
	Date civil.Date
	// Time is an optional HH:mm service time. No current dimension depends on it.
	Time string
}

// SubScores holds the six dimension scores, each in [0, 1].
type SubScores struct {
	Fitness  float64
	JobCard  float64
	Branding float64
	Mileage  float64
	Cleaning float64
	Stabling float64
}

// Breakdown holds the six dimension scores as integer percentages.
type Breakdown struct {
	Fitness  int `json:"fitness"`
	JobCard  int `json:"jobcard"`
	Branding int `json:"branding"`
	Mileage  int `json:"mileage"`
	Cleaning int `json:"cleaning"`
	Stabling int `json:"stabling"`
}

// Result is the outcome of scoring one train.
type Result struct {
	Score          int
	Breakdown      Breakdown
	Conflicts      []Conflict
	Recommendation Recommendation
}

// ConflictFree reports whether the evaluation found no blocking conflicts.
func (r Result) ConflictFree() bool {
	return len(r.Conflicts) == 0
}

// ConflictMessages returns the conflict descriptions in detection order.
func (r Result) ConflictMessages() []string {
	msgs := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		msgs = append(msgs, c.Message)
	}
	return msgs
}

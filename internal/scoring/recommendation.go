package scoring

import (
	"fmt"
)

// Recommendation is the induction action for a scored train.
// Values are ordered by severity: a higher value is a stronger reason not to induct.
type Recommendation int

const (
	RecommendationUnknown Recommendation = iota
	RecommendationPriority
	RecommendationReady
	RecommendationCaution
	RecommendationAvoid
	RecommendationHold
)

// Score thresholds for conflict-free trains.
const (
	PriorityThreshold = 80
	ReadyThreshold    = 60
	CautionThreshold  = 40
)

var recommendationCodes = map[Recommendation]string{
	RecommendationPriority: "PRIORITY",
	RecommendationReady:    "READY",
	RecommendationCaution:  "CAUTION",
	RecommendationAvoid:    "AVOID",
	RecommendationHold:     "HOLD",
}

var recommendationLabels = map[Recommendation]string{
	RecommendationPriority: "PRIORITY — optimal for immediate induction",
	RecommendationReady:    "READY — good candidate for induction",
	RecommendationCaution:  "CAUTION — consider alternatives",
	RecommendationAvoid:    "AVOID — poor induction candidate",
	RecommendationHold:     "HOLD — resolve conflicts before induction",
}

// Recommendations returns every known recommendation in severity order.
func Recommendations() []Recommendation {
	return []Recommendation{
		RecommendationPriority,
		RecommendationReady,
		RecommendationCaution,
		RecommendationAvoid,
		RecommendationHold,
	}
}

// Classify maps a score and its conflicts to a recommendation.
// Any conflict yields Hold regardless of score.
func Classify(score int, conflicts []Conflict) Recommendation {
	switch {
	case len(conflicts) > 0:
		return RecommendationHold
	case score >= PriorityThreshold:
		return RecommendationPriority
	case score >= ReadyThreshold:
		return RecommendationReady
	case score >= CautionThreshold:
		return RecommendationCaution
	default:
		return RecommendationAvoid
	}
}

// Code returns the short machine-readable code, e.g. "HOLD".
func (r Recommendation) Code() string {
	if code, ok := recommendationCodes[r]; ok {
		return code
	}
	return "UNKNOWN"
}

// Label returns the operator-facing description.
func (r Recommendation) Label() string {
	if label, ok := recommendationLabels[r]; ok {
		return label
	}
	return "UNKNOWN"
}

// Severity returns the ordering weight; higher is more severe.
func (r Recommendation) Severity() int {
	return int(r)
}

// Blocking reports whether the recommendation forbids induction.
func (r Recommendation) Blocking() bool {
	return r == RecommendationHold
}

func (r Recommendation) String() string {
	return r.Code()
}

// MarshalText encodes the recommendation as its code.
func (r Recommendation) MarshalText() ([]byte, error) {
	if _, ok := recommendationCodes[r]; !ok {
		return nil, fmt.Errorf("unknown recommendation %d", int(r))
	}
	return []byte(r.Code()), nil
}

// UnmarshalText decodes a recommendation code.
func (r *Recommendation) UnmarshalText(text []byte) error {
	parsed, err := ParseRecommendation(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRecommendation returns the recommendation for a code such as "READY".
func ParseRecommendation(code string) (Recommendation, error) {
	for rec, c := range recommendationCodes {
		if c == code {
			return rec, nil
		}
	}
	return RecommendationUnknown, fmt.Errorf("unknown recommendation code %q", code)
}

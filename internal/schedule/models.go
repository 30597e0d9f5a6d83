// Package schedule logs induction decisions for a train, station and route.
package schedule

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"github.com/traininduction/traininduction/internal/scoring"
)

// Repository errors.
var (
	ErrScheduleNotFound = errors.New("schedule not found")
)

// Status is the review state of a logged entry.
type Status string

const (
	StatusScheduled     Status = "scheduled"
	StatusPendingReview Status = "pending_review"
)

// ScheduledThreshold is the minimum score logged directly as scheduled.
const ScheduledThreshold = 60

// StatusFor derives the entry status from a score.
func StatusFor(score int) Status {
	if score >= ScheduledThreshold {
		return StatusScheduled
	}
	return StatusPendingReview
}

// Entry is a logged induction decision and the evaluation it was based on.
type Entry struct {
	ID             string
	TrainID        string
	Station        string
	Route          string
	Date           civil.Date
	Time           string
	Score          int
	Breakdown      scoring.Breakdown
	Conflicts      []string
	Recommendation scoring.Recommendation
	Status         Status
	CreatedAt      time.Time
}

package schedule

import (
	"context"

	"cloud.google.com/go/civil"
)

// ListOptions filters a listing. Zero values match everything.
type ListOptions struct {
	TrainID string
	Date    civil.Date
	Limit   int
}

func (o ListOptions) matches(e *Entry) bool {
	if o.TrainID != "" && e.TrainID != o.TrainID {
		return false
	}
	if !o.Date.IsZero() && e.Date != o.Date {
		return false
	}
	return true
}

// Repository defines the interface for schedule persistence.
type Repository interface {
	// Create stores a new entry.
	Create(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by ID.
	// Returns ErrScheduleNotFound if the entry doesn't exist.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries in creation order.
	List(ctx context.Context, opts ListOptions) ([]*Entry, error)
}

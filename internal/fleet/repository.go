// Package fleet provides the train record store the induction engine reads from.
package fleet

import (
	"context"
	"errors"

	"github.com/traininduction/traininduction/internal/scoring"
)

// ErrTrainNotFound is returned when a train ID is not in the fleet.
var ErrTrainNotFound = errors.New("train not found")

// Repository defines the interface for fleet persistence.
type Repository interface {
	// List returns every train in stable fleet order.
	List(ctx context.Context) ([]scoring.TrainRecord, error)

	// Get retrieves a train by ID.
	// Returns ErrTrainNotFound if the train doesn't exist.
	Get(ctx context.Context, id string) (*scoring.TrainRecord, error)

	// Upsert creates or replaces a train. New trains are appended to fleet order.
	Upsert(ctx context.Context, train *scoring.TrainRecord) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// cloneRecord deep-copies the slices and pointers of a record so callers
// cannot mutate stored state.
func cloneRecord(t *scoring.TrainRecord) *scoring.TrainRecord {
	cpy := *t
	if t.Certificates != nil {
		cpy.Certificates = append([]scoring.Certificate(nil), t.Certificates...)
	}
	if t.JobCards != nil {
		cpy.JobCards = append([]string(nil), t.JobCards...)
	}
	if t.Branding != nil {
		b := *t.Branding
		cpy.Branding = &b
	}
	return &cpy
}

package fleet

import (
	"context"
	"errors"

	"github.com/traininduction/traininduction/internal/resilience"
	"github.com/traininduction/traininduction/internal/scoring"
)

// ResilientRepository wraps a Repository with retry and a circuit breaker.
// A missing train is an answer, not a fault: it is returned immediately and
// does not count against the breaker.
type ResilientRepository struct {
	next Repository
	exec *resilience.Executor
}

// NewResilientRepository wraps next. Policy.IsPermanent is extended to treat
// ErrTrainNotFound as permanent.
func NewResilientRepository(next Repository, p resilience.Policy) *ResilientRepository {
	userPermanent := p.IsPermanent
	p.IsPermanent = func(err error) bool {
		if errors.Is(err, ErrTrainNotFound) || errors.Is(err, context.Canceled) {
			return true
		}
		return userPermanent != nil && userPermanent(err)
	}
	return &ResilientRepository{
		next: next,
		exec: resilience.NewExecutor(p),
	}
}

// Executor exposes the underlying executor for health reporting.
func (r *ResilientRepository) Executor() *resilience.Executor {
	return r.exec
}

// List returns every train.
func (r *ResilientRepository) List(ctx context.Context) ([]scoring.TrainRecord, error) {
	return resilience.Call(ctx, r.exec, r.next.List)
}

// Get retrieves a train by ID.
func (r *ResilientRepository) Get(ctx context.Context, id string) (*scoring.TrainRecord, error) {
	return resilience.Call(ctx, r.exec, func(ctx context.Context) (*scoring.TrainRecord, error) {
		return r.next.Get(ctx, id)
	})
}

// Upsert creates or replaces a train.
func (r *ResilientRepository) Upsert(ctx context.Context, train *scoring.TrainRecord) error {
	return r.exec.Do(ctx, func(ctx context.Context) error {
		return r.next.Upsert(ctx, train)
	})
}

// Ping checks the wrapped store directly so readiness reflects the store, not
// the breaker.
func (r *ResilientRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

var _ Repository = (*ResilientRepository)(nil)

package fleet

import (
	"context"
	"sync"

	"github.com/traininduction/traininduction/internal/scoring"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It backs local runs and tests; production should use PostgresRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	order  []string
	trains map[string]*scoring.TrainRecord
}

// NewInMemoryRepository creates a repository holding the given trains in order.
func NewInMemoryRepository(trains ...scoring.TrainRecord) *InMemoryRepository {
	r := &InMemoryRepository{
		trains: make(map[string]*scoring.TrainRecord, len(trains)),
	}
	for i := range trains {
		r.put(&trains[i])
	}
	return r
}

// List returns every train in insertion order.
func (r *InMemoryRepository) List(_ context.Context) ([]scoring.TrainRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scoring.TrainRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *cloneRecord(r.trains[id]))
	}
	return out, nil
}

// Get retrieves a train by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*scoring.TrainRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trains[id]
	if !ok {
		return nil, ErrTrainNotFound
	}
	return cloneRecord(t), nil
}

// Upsert creates or replaces a train.
func (r *InMemoryRepository) Upsert(_ context.Context, train *scoring.TrainRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(train)
	return nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (r *InMemoryRepository) put(train *scoring.TrainRecord) {
	if _, exists := r.trains[train.ID]; !exists {
		r.order = append(r.order, train.ID)
	}
	r.trains[train.ID] = cloneRecord(train)
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)

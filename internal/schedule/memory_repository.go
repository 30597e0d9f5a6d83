package schedule

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
	byID    map[string]*Entry
}

// NewInMemoryRepository creates a new in-memory schedule repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID: make(map[string]*Entry),
	}
}

// Create stores a new entry.
func (r *InMemoryRepository) Create(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[entry.ID]; exists {
		return fmt.Errorf("schedule %s already exists", entry.ID)
	}
	cpy := copyEntry(entry)
	r.entries = append(r.entries, cpy)
	r.byID[entry.ID] = cpy
	return nil
}

// Get retrieves an entry by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return copyEntry(e), nil
}

// List returns entries in creation order.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entry
	for _, e := range r.entries {
		if !opts.matches(e) {
			continue
		}
		out = append(out, copyEntry(e))
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func copyEntry(e *Entry) *Entry {
	cpy := *e
	cpy.Conflicts = append([]string(nil), e.Conflicts...)
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)

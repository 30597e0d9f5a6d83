package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// DependencyHealth is a snapshot of one protected dependency.
type DependencyHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy returns true if the circuit is closed.
func (h DependencyHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true if the circuit is half-open.
func (h DependencyHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// Registry tracks executors so their health can be reported.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]*Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]*Executor)}
}

// Register adds an executor under its name, replacing any previous one.
func (r *Registry) Register(e *Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Name()] = e
}

// Health returns a snapshot of every registered dependency, sorted by name.
func (r *Registry) Health() []DependencyHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DependencyHealth, 0, len(r.executors))
	for name, e := range r.executors {
		h := DependencyHealth{
			Name:         name,
			CircuitState: e.State(),
			Counts:       e.Counts(),
		}
		e.mu.RLock()
		if !e.lastSuccessAt.IsZero() {
			t := e.lastSuccessAt
			h.LastSuccessAt = &t
		}
		if !e.lastFailureAt.IsZero() {
			t := e.lastFailureAt
			h.LastFailureAt = &t
		}
		h.LastError = e.lastError
		e.mu.RUnlock()
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Policy configures an Executor.
type Policy struct {
	// Name identifies the protected dependency.
	Name string

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 50ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 2 seconds
	MaxInterval time.Duration

	// CircuitBreaker configures the breaker. Name defaults to Policy.Name.
	CircuitBreaker CircuitBreakerConfig

	// IsPermanent reports errors that are answers rather than faults, such as
	// a not-found lookup. They are neither retried nor counted as failures.
	IsPermanent func(error) bool
}

// DefaultPolicy returns the policy used for store and publisher calls.
func DefaultPolicy(name string) Policy {
	return Policy{
		Name:            name,
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  DefaultCircuitBreakerConfig(name),
	}
}

// Executor runs operations through a circuit breaker with exponential retry.
// It is safe for concurrent use.
type Executor struct {
	policy Policy
	cb     *gobreaker.CircuitBreaker[struct{}]

	mu            sync.RWMutex
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastError     string
}

// NewExecutor creates an Executor, filling unset policy fields with defaults.
func NewExecutor(p Policy) *Executor {
	if p.MaxRetries == 0 {
		p.MaxRetries = 3
	}
	if p.InitialInterval == 0 {
		p.InitialInterval = 50 * time.Millisecond
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = 2 * time.Second
	}
	if p.CircuitBreaker.Name == "" {
		p.CircuitBreaker.Name = p.Name
	}

	e := &Executor{policy: p}
	e.cb = newCircuitBreaker(p.CircuitBreaker, func(err error) bool {
		return err == nil || e.permanent(err)
	})
	return e
}

// Name returns the protected dependency name.
func (e *Executor) Name() string {
	return e.policy.Name
}

// Do runs op until it succeeds, returns a permanent error, exhausts retries,
// or ctx ends. Calls rejected by an open breaker fail fast with ErrCircuitOpen.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.policy.InitialInterval
	bo.MaxInterval = e.policy.MaxInterval
	bo.MaxElapsedTime = 0 // bounded by MaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.policy.MaxRetries), ctx)

	err := backoff.Retry(func() error {
		_, err := e.cb.Execute(func() (struct{}, error) {
			return struct{}{}, op(ctx)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case e.permanent(err):
			return backoff.Permanent(err)
		default:
			return err
		}
	}, policy)

	e.record(err)
	return err
}

// Call runs op through e and returns its value.
func Call[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// State returns the current circuit breaker state.
func (e *Executor) State() gobreaker.State {
	return e.cb.State()
}

// Counts returns the current circuit breaker counts.
func (e *Executor) Counts() gobreaker.Counts {
	return e.cb.Counts()
}

func (e *Executor) permanent(err error) bool {
	return e.policy.IsPermanent != nil && e.policy.IsPermanent(err)
}

func (e *Executor) record(err error) {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil || e.permanent(err) {
		e.lastSuccessAt = now
		return
	}
	e.lastFailureAt = now
	e.lastError = err.Error()
}

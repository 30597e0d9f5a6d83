// Package events publishes domain events about induction decisions.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types.
const (
	TypeScheduleLogged = "schedule.logged"
	TypeFleetOptimized = "fleet.optimized"
)

// Event is a domain event. Data is encoded as JSON.
type Event struct {
	Type       string
	Subject    string
	OccurredAt time.Time
	Data       any
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records e.
func (p *MemoryPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Close does nothing.
func (p *MemoryPublisher) Close() error { return nil }

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*MemoryPublisher)(nil)
)

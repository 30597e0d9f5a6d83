// Package cache stores evaluation results keyed by their inputs.
//
// Evaluations are deterministic given a record, a reference date and the
// engine configuration, so a result can be reused until its TTL expires.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/traininduction/traininduction/internal/scoring"
)

// ScoreCache stores evaluation results.
type ScoreCache interface {
	// Get returns the cached result for key. A miss returns ok=false and a nil error.
	Get(ctx context.Context, key string) (result scoring.Result, ok bool, err error)
	Set(ctx context.Context, key string, result scoring.Result) error
	Ping(ctx context.Context) error
}

// Key derives a cache key from the evaluation inputs. namespace should change
// whenever the engine configuration changes.
func Key(namespace string, rec scoring.TrainRecord, ref civil.Date) (string, error) {
	payload, err := json.Marshal(struct {
		Record scoring.TrainRecord
		Ref    string
	}{rec, ref.String()})
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", rec.ID, err)
	}
	sum := sha256.Sum256(payload)
	return namespace + ":" + rec.ID + ":" + hex.EncodeToString(sum[:]), nil
}

// cachedResult is the stored form of a scoring.Result.
type cachedResult struct {
	Score          int                    `json:"score"`
	Breakdown      scoring.Breakdown      `json:"breakdown"`
	Conflicts      []cachedConflict       `json:"conflicts"`
	Recommendation scoring.Recommendation `json:"recommendation"`
}

type cachedConflict struct {
	Kind     scoring.ConflictKind `json:"kind"`
	Category string               `json:"category,omitempty"`
	Message  string               `json:"message"`
}

func encodeResult(r scoring.Result) ([]byte, error) {
	c := cachedResult{
		Score:          r.Score,
		Breakdown:      r.Breakdown,
		Recommendation: r.Recommendation,
	}
	for _, cf := range r.Conflicts {
		c.Conflicts = append(c.Conflicts, cachedConflict{Kind: cf.Kind, Category: cf.Category, Message: cf.Message})
	}
	return json.Marshal(c)
}

func decodeResult(data []byte) (scoring.Result, error) {
	var c cachedResult
	if err := json.Unmarshal(data, &c); err != nil {
		return scoring.Result{}, err
	}
	r := scoring.Result{
		Score:          c.Score,
		Breakdown:      c.Breakdown,
		Recommendation: c.Recommendation,
	}
	for _, cf := range c.Conflicts {
		r.Conflicts = append(r.Conflicts, scoring.Conflict{Kind: cf.Kind, Category: cf.Category, Message: cf.Message})
	}
	return r, nil
}

// InMemoryCache is a ScoreCache held in process memory. Expired entries are
// dropped when read and swept from Set at most once per ttl.
type InMemoryCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	nextSweep time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewInMemoryCache creates an in-memory cache. A zero ttl never expires.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached result for key.
func (c *InMemoryCache) Get(_ context.Context, key string) (scoring.Result, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return scoring.Result{}, false, nil
	}
	if now := c.now(); e.expired(now) {
		c.mu.Lock()
		// A concurrent Set may have refreshed the key.
		if cur, ok := c.entries[key]; ok && cur.expired(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return scoring.Result{}, false, nil
	}

	r, err := decodeResult(e.data)
	if err != nil {
		return scoring.Result{}, false, err
	}
	return r, true, nil
}

// Set stores result under key.
func (c *InMemoryCache) Set(_ context.Context, key string, result scoring.Result) error {
	data, err := encodeResult(result)
	if err != nil {
		return err
	}
	now := c.now()
	e := memoryEntry{data: data}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	if c.ttl > 0 && !now.Before(c.nextSweep) {
		for k, v := range c.entries {
			if v.expired(now) {
				delete(c.entries, k)
			}
		}
		c.nextSweep = now.Add(c.ttl)
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ping always succeeds.
func (c *InMemoryCache) Ping(context.Context) error { return nil }

var _ ScoreCache = (*InMemoryCache)(nil)

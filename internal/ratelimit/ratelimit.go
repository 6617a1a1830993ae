// Package ratelimit implements a fixed-window request limiter keyed by
// client IP. The counter store is injected so single-instance deployments
// can stay in memory while multi-instance ones share a Redis store.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Entry is one client's counter for the current window.
type Entry struct {
	Count int       `json:"count"`
	Reset time.Time `json:"reset"`
}

// Store holds counters keyed by client. Incr must be atomic: concurrent
// callers on one key see distinct counts, never the same one twice. It
// starts a fresh window when the key is absent or its window has passed,
// and otherwise increments the live one.
type Store interface {
	Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error)
	Sweep(ctx context.Context, now time.Time) error
}

// Result reports one Allow decision along with the quota accounting the
// response headers need.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

const sweepProbability = 0.01

// Limiter applies a fixed window of Max requests per Window to each key.
// The route name prefixes every key so limiters can share one store
// without their counters colliding.
type Limiter struct {
	store  Store
	route  string
	window time.Duration
	max    int

	now  func() time.Time
	roll func() float64
}

func NewLimiter(store Store, route string, window time.Duration, max int) *Limiter {
	return &Limiter{
		store:  store,
		route:  route,
		window: window,
		max:    max,
		now:    time.Now,
		roll:   rand.Float64,
	}
}

// Allow records one call for key and reports whether it fits the window.
// Roughly 1% of calls also sweep expired entries from the store; there is
// no background timer.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	key = l.route + ":" + key

	if l.roll() < sweepProbability {
		if err := l.store.Sweep(ctx, now); err != nil {
			return Result{}, err
		}
	}

	entry, err := l.store.Incr(ctx, key, now, l.window)
	if err != nil {
		return Result{}, err
	}

	if entry.Count > l.max {
		return Result{Allowed: false, Limit: l.max, Remaining: 0, Reset: entry.Reset}, nil
	}
	return Result{Allowed: true, Limit: l.max, Remaining: l.max - entry.Count, Reset: entry.Reset}, nil
}

// MemoryStore keeps counters in a mutex-guarded map. Counters are only
// removed by Sweep or by a fresh window overwriting them.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.After(entry.Reset) {
		entry = Entry{Count: 1, Reset: now.Add(window)}
	} else {
		entry.Count++
	}
	s.entries[key] = entry
	return entry, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if now.After(entry.Reset) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Package ratelimit provides the process-local CounterStore implementation.
//
// Counts live in process memory only: when the server runs as multiple
// independent instances, each instance enforces its own ceiling. Deployments
// needing a global ceiling should wire the Redis-backed counter instead.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int64
}

// MemoryStore is an in-memory fixed-window counter keyed by caller-supplied
// strings. Expired windows are dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Incr increments the count for key within the current window, resetting the
// window when the previous one has elapsed.
func (s *MemoryStore) Incr(_ context.Context, key string, d time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= d {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	return w.count, nil
}

package ports

import (
	"context"
	"time"
)

// CounterStore increments and returns the request count for a key within the
// current fixed window. Implementations decide key expiry; callers only see
// the post-increment count.
//
// The store is injectable so a process-local map and a shared Redis counter
// are interchangeable. With the in-memory store and multiple server
// instances, ceilings are enforced per instance, not globally.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

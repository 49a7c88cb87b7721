package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is a fixed-window request counter backed by Redis, shared across
// server instances. Key format: rl:<key>:<window_start_unix>
type Counter struct {
	client *redis.Client
}

// NewCounter creates a Counter wrapping the given Redis client.
func NewCounter(client *redis.Client) *Counter {
	return &Counter{client: client}
}

// Incr increments the count for key in the current window and returns the
// post-increment value. The window key expires shortly after the window ends.
func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	bucket := time.Now().Truncate(window).Unix()
	k := fmt.Sprintf("rl:%s:%d", key, bucket)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate counter incr: %w", err)
	}
	return incr.Val(), nil
}

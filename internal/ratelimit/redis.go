// Package ratelimit implements a fixed-window request counter backed by
// redis, shared across service replicas.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a source may make another request in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, source string) (bool, error)
}

// FixedWindow counts requests per source per window in redis. The counter
// key expires with the window, so a new window starts clean.
type FixedWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewFixedWindow creates a FixedWindow limiter.
func NewFixedWindow(client *redis.Client, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{client: client, limit: limit, window: window}
}

// Allow increments the source's counter and reports whether it is within
// the limit.
func (l *FixedWindow) Allow(ctx context.Context, source string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", source)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

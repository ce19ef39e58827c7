// Package ratelimit implements a fixed-window request limiter shared across
// service replicas through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Result describes the state of a key's window after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time left until the window resets.
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

func New(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow counts a hit for key. The window starts with the first hit and
// expires as a whole. A key left without a TTL gets one on the next hit.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	const op = "ratelimit.Limiter.Allow"

	key = keyPrefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: failed to count hit: %w", op, err)
	}

	count := int(incr.Val())

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("%s: failed to start window: %w", op, err)
		}

		retryAfter = l.window
	}

	return Result{
		Allowed:    count <= l.limit,
		Limit:      l.limit,
		Remaining:  max(l.limit-count, 0),
		RetryAfter: retryAfter,
	}, nil
}

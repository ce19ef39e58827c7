package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, limit, window), srv
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("within limit", func(t *testing.T) {
		l, _ := newLimiter(t, 3, time.Minute)

		for want := 2; want >= 0; want-- {
			res, err := l.Allow(ctx, "203.0.113.7")
			require.NoError(t, err)

			assert.True(t, res.Allowed)
			assert.Equal(t, want, res.Remaining)
			assert.Equal(t, 3, res.Limit)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		l, _ := newLimiter(t, 1, time.Minute)

		_, err := l.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)

		res, err := l.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)

		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
		assert.Greater(t, res.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, res.RetryAfter, time.Minute)
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, _ := newLimiter(t, 1, time.Minute)

		_, err := l.Allow(ctx, "a")
		require.NoError(t, err)

		res, err := l.Allow(ctx, "b")
		require.NoError(t, err)

		assert.True(t, res.Allowed)
	})

	t.Run("window resets", func(t *testing.T) {
		l, srv := newLimiter(t, 1, time.Minute)

		_, err := l.Allow(ctx, "a")
		require.NoError(t, err)

		srv.FastForward(time.Minute + time.Second)

		res, err := l.Allow(ctx, "a")
		require.NoError(t, err)

		assert.True(t, res.Allowed)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		l, srv := newLimiter(t, 1, time.Minute)
		srv.Close()

		_, err := l.Allow(ctx, "a")

		assert.Error(t, err)
	})
}

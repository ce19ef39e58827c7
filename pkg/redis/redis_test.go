package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("unreachable server", func(t *testing.T) {
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		client, err := New(context.Background(), addr)

		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("success", func(t *testing.T) {
		srv := miniredis.RunT(t)
		srv.RequireAuth("secret")

		client, err := New(context.Background(), srv.Addr(), WithPassword("secret"), WithDB(0), WithPoolSize(2))
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 2, client.Options().PoolSize)
		assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	})
}

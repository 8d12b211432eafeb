package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Connects", func(t *testing.T) {
		// Given: a running redis
		mr := miniredis.RunT(t)

		// When: the storage is opened
		redisStorage, err := New(context.Background(), mr.Addr())

		// Then: it answers commands
		require.NoError(t, err)
		t.Cleanup(func() { _ = redisStorage.Close() })

		require.NoError(t, redisStorage.Connection.Set(context.Background(), "k", "v", 0).Err())
		value, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", value)
	})

	t.Run("Fails without redis", func(t *testing.T) {
		// Given: a redis that is already gone
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		// When: the storage is opened
		_, err := New(context.Background(), addr)

		// Then: the ping error is returned
		require.Error(t, err)
	})
}

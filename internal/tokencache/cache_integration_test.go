//go:build integration

package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestCache_AgainstRedis(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	cache := New(rdb)
	require.NoError(t, cache.Set(ctx, "inst-int", "tok", 2*time.Second))

	token, found, err := cache.Get(ctx, "inst-int")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok", token)

	ttl, err := rdb.TTL(ctx, "inst-int_accesstoken").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	assert.Eventually(t, func() bool {
		_, found, err := cache.Get(ctx, "inst-int")
		return err == nil && !found
	}, 5*time.Second, 200*time.Millisecond)
}

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authcore/internal/auth/outbound/cache"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCache_Revoke(t *testing.T) {
	// Arrange
	rdb := newRedis(t)
	store := cache.NewCache(rdb, instrument.NewNoop())
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	// Act
	require.NoError(t, store.Revoke(ctx, "jti-1", exp))
	require.NoError(t, store.Revoke(ctx, "jti-1", exp.Add(time.Hour)))

	// Assert
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := rdb.TTL(ctx, "auth:revoked:jti-1").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5, "the first record wins")

	revoked, err = store.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	n, err := store.PurgeExpiredRevocations(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_ClosedClient(t *testing.T) {
	rdb := newRedis(t)
	store := cache.NewCache(rdb, instrument.NewNoop())
	require.NoError(t, rdb.Close())

	_, err := store.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
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

func TestRedis_Once(t *testing.T) {
	// Arrange
	g := New(newRedis(t))
	ctx := context.Background()
	calls := 0
	fn := func(context.Context) error { calls++; return nil }

	// Act
	first := g.Once(ctx, "otp:1", fn)
	second := g.Once(ctx, "otp:1", fn)

	// Assert
	assert.NoError(t, first)
	assert.ErrorIs(t, second, ErrDone)
	assert.Equal(t, 1, calls)
}

func TestRedis_Once_ReleasesOnFailure(t *testing.T) {
	g := New(newRedis(t))
	ctx := context.Background()
	boom := errors.New("smtp down")

	err := g.Once(ctx, "otp:2", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = g.Once(ctx, "otp:2", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestRedis_Once_InProgress(t *testing.T) {
	g := New(newRedis(t))
	ctx := context.Background()

	err := g.Once(ctx, "otp:3", func(ctx context.Context) error {
		return g.Once(ctx, "otp:3", func(context.Context) error { return nil })
	})

	assert.ErrorIs(t, err, ErrInProgress)
}

// Package cache keeps token revocations in redis. Records expire with the
// token, so there is nothing to purge.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "auth:revoked:"

type Cache struct {
	client redis.Cmdable
	ins    instrument.Instrumentation
}

func NewCache(client redis.Cmdable, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) IsRevoked(ctx context.Context, tokenID string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "IsRevoked")
	defer func() { c.endSpan(span, err) }()

	n, err := c.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Revoke sets the record once, expiring at expiresAt. A second call keeps
// the first record.
func (c *Cache) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) (err error) {
	ctx, span := c.startSpan(ctx, "Revoke")
	defer func() { c.endSpan(span, err) }()

	err = c.client.SetArgs(ctx, keyPrefix+tokenID, expiresAt.Unix(), redis.SetArgs{
		Mode:     "NX",
		ExpireAt: expiresAt,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}

	return err
}

func (c *Cache) PurgeExpiredRevocations(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Package idempotency guards side effects that may be triggered more than
// once, such as redelivered broker messages, with a redis-backed state key.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInProgress is returned when another worker holds the key.
	ErrInProgress = errors.New("idempotency: operation already in progress")
	// ErrDone is returned when the operation already completed.
	ErrDone = errors.New("idempotency: operation already completed")
)

const (
	stateInProgress = "in_progress"
	stateDone       = "done"

	defaultLockDuration = time.Minute
	defaultDoneTTL      = 24 * time.Hour
)

// Guard runs fn at most once per key within the retention window.
type Guard interface {
	Once(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Option tunes a single Once call.
type Option func(*onceOptions)

type onceOptions struct {
	lock time.Duration
	ttl  time.Duration
}

// WithLockDuration bounds how long a crashed worker can block retries.
func WithLockDuration(d time.Duration) Option {
	return func(o *onceOptions) { o.lock = d }
}

// WithDoneTTL sets how long a completed key is remembered.
func WithDoneTTL(d time.Duration) Option {
	return func(o *onceOptions) { o.ttl = d }
}

// Redis implements Guard with SET NX.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// New returns a Redis guard with keys under "idempotency:".
func New(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: "idempotency:"}
}

// Once claims key, runs fn and records completion. When fn fails the claim
// is released so a retry can run it again.
func (r *Redis) Once(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := onceOptions{lock: defaultLockDuration, ttl: defaultDoneTTL}
	for _, opt := range opts {
		opt(&o)
	}

	k := r.prefix + key
	claimed, err := r.client.SetNX(ctx, k, stateInProgress, o.lock).Result()
	if err != nil {
		return err
	}

	if !claimed {
		state, err := r.client.Get(ctx, k).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// released between SETNX and GET; treat as contended
			return ErrInProgress
		case err != nil:
			return err
		case state == stateDone:
			return ErrDone
		default:
			return ErrInProgress
		}
	}

	if err := fn(ctx); err != nil {
		if delErr := r.client.Del(ctx, k).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return r.client.Set(ctx, k, stateDone, o.ttl).Err()
}

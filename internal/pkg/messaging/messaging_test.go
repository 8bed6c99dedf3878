package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestDelivery_SettleOnce(t *testing.T) {
	acks, nacks := atomic.NewInt32(0), atomic.NewInt32(0)
	d := newDelivery("t", "1", nil, nil,
		func(context.Context) error { acks.Inc(); return nil },
		func(context.Context) error { nacks.Inc(); return nil },
	)

	require.NoError(t, d.Ack(context.Background()))
	require.NoError(t, d.Nack(context.Background()))
	require.NoError(t, d.Ack(context.Background()))

	assert.Equal(t, int32(1), acks.Load())
	assert.Equal(t, int32(0), nacks.Load())
	assert.True(t, d.Settled())
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name     string
		handler  Handler
		wantAck  int32
		wantNack int32
	}{
		{name: "success acks", handler: func(context.Context, *Delivery) error { return nil }, wantAck: 1},
		{name: "error nacks", handler: func(context.Context, *Delivery) error { return errors.New("x") }, wantNack: 1},
		{name: "panic nacks", handler: func(context.Context, *Delivery) error { panic("boom") }, wantNack: 1},
		{name: "handler settles", handler: func(ctx context.Context, d *Delivery) error {
			_ = d.Nack(ctx)
			return nil
		}, wantNack: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acks, nacks := atomic.NewInt32(0), atomic.NewInt32(0)
			d := newDelivery("t", "1", nil, nil,
				func(context.Context) error { acks.Inc(); return nil },
				func(context.Context) error { nacks.Inc(); return nil },
			)

			dispatch(context.Background(), "test", tt.handler, d)

			assert.Equal(t, tt.wantAck, acks.Load())
			assert.Equal(t, tt.wantNack, nacks.Load())
		})
	}
}

func TestMemory_PublishSubscribe(t *testing.T) {
	// Arrange
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.group("otp_dispatch", "notification")

	var mu sync.Mutex
	var got []*Delivery
	done := make(chan error, 1)
	go func() {
		done <- m.Subscribe(ctx, "otp_dispatch", func(_ context.Context, d *Delivery) error {
			mu.Lock()
			got = append(got, d)
			mu.Unlock()
			return nil
		}, WithGroup("notification"), WithConcurrency(2))
	}()

	// Act
	require.NoError(t, m.Publish(ctx, "otp_dispatch", Envelope{
		Body:    []byte(`{"email":"jane@example.com"}`),
		Headers: map[string]string{"cID": "abc"},
	}))

	// Assert
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "abc", got[0].Header("cID"))
	assert.JSONEq(t, `{"email":"jane@example.com"}`, string(got[0].Body))
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemory_NackRedelivers(t *testing.T) {
	m := NewMemory()
	t.Cleanup(func() { _ = m.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.group("topic", "g")
	calls := atomic.NewInt32(0)
	go func() {
		_ = m.Subscribe(ctx, "topic", func(context.Context, *Delivery) error {
			if calls.Inc() == 1 {
				return errors.New("transient")
			}
			return nil
		}, WithGroup("g"))
	}()

	require.NoError(t, m.Publish(ctx, "topic", Envelope{Body: []byte("x")}))

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()

	assert.ErrorIs(t, m.Publish(context.Background(), "", Envelope{}), ErrTopicRequired)
	assert.ErrorIs(t, m.Subscribe(context.Background(), "t", nil), ErrHandlerRequired)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Publish(context.Background(), "t", Envelope{}), ErrClosed)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "rabbit"})

	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestNewSubscribeOptions(t *testing.T) {
	so := newSubscribeOptions(WithGroup("g"), WithConcurrency(0), nil)

	assert.Equal(t, "g", so.group)
	assert.Equal(t, 1, so.concurrency)
	assert.Equal(t, 1, so.maxInFlight)

	so = newSubscribeOptions(WithConcurrency(4), WithMaxInFlight(16))
	assert.Equal(t, 4, so.concurrency)
	assert.Equal(t, 16, so.maxInFlight)
}

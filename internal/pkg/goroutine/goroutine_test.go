package goroutine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestManager_CollectsErrors(t *testing.T) {
	// Arrange
	m := NewManager(4)
	boom := errors.New("boom")

	// Act
	m.Go(context.Background(), func(context.Context) error { return nil })
	m.Go(context.Background(), func(context.Context) error { return boom })
	err := m.Wait()

	// Assert
	assert.ErrorIs(t, err, boom)
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)

	m.Go(context.Background(), func(context.Context) error { panic("kaboom") })

	assert.NoError(t, m.Wait())
}

func TestManager_ClosedAfterWait(t *testing.T) {
	m := NewManager(1)
	assert.NoError(t, m.Wait())

	ran := atomic.NewBool(false)
	m.Go(context.Background(), func(context.Context) error { ran.Store(true); return nil })

	assert.NoError(t, m.Wait())
	assert.False(t, ran.Load())
}

func TestManager_Every(t *testing.T) {
	// Arrange
	m := NewManager(2)
	ctx, cancel := context.WithCancel(context.Background())
	calls := atomic.NewInt32(0)

	// Act
	m.Every(ctx, "tick", 5*time.Millisecond, func(context.Context) error {
		if calls.Inc() == 2 {
			return errors.New("transient")
		}
		return nil
	})
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	// Assert
	assert.NoError(t, m.Wait())
}

package idempotency

import (
	"context"
	"sync"
	"time"
)

// Memory implements Guard inside one process. Keys do not survive restarts.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	state map[string]memoryEntry
}

type memoryEntry struct {
	state   string
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, state: map[string]memoryEntry{}}
}

func (m *Memory) Once(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := onceOptions{lock: defaultLockDuration, ttl: defaultDoneTTL}
	for _, opt := range opts {
		opt(&o)
	}

	m.mu.Lock()
	now := m.now()
	if e, ok := m.state[key]; ok && now.Before(e.expires) {
		m.mu.Unlock()
		if e.state == stateDone {
			return ErrDone
		}
		return ErrInProgress
	}
	m.state[key] = memoryEntry{state: stateInProgress, expires: now.Add(o.lock)}
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		delete(m.state, key)
		return err
	}
	m.state[key] = memoryEntry{state: stateDone, expires: m.now().Add(o.ttl)}
	return nil
}

package messaging

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/atomic"
)

const memoryBuffer = 256

// Memory is an in-process broker. Every group subscribed to a topic gets each
// message once; subscribers sharing a group compete. Messages published to
// a topic with no groups are dropped. Nack requeues to the same group.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]chan *Delivery
	seq    *atomic.Int64
	done   chan struct{}
	closed *atomic.Bool
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{
		topics: map[string]map[string]chan *Delivery{},
		seq:    atomic.NewInt64(0),
		done:   make(chan struct{}),
		closed: atomic.NewBool(false),
	}
}

func (m *Memory) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	groups := make([]chan *Delivery, 0, len(m.topics[topic]))
	for _, ch := range m.topics[topic] {
		groups = append(groups, ch)
	}
	m.mu.Unlock()

	id := strconv.FormatInt(m.seq.Inc(), 10)
	for _, ch := range groups {
		d := m.delivery(topic, id, env, ch)
		select {
		case ch <- d:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}

	return nil
}

func (m *Memory) delivery(topic, id string, env Envelope, ch chan *Delivery) *Delivery {
	body := append([]byte(nil), env.Body...)
	headers := cloneHeaders(env.Headers)

	return newDelivery(topic, id, body, headers, nil, func(context.Context) error {
		redo := m.delivery(topic, id, Envelope{Body: body, Headers: headers}, ch)
		go func() {
			select {
			case ch <- redo:
			case <-m.done:
			}
		}()
		return nil
	})
}

func (m *Memory) Subscribe(ctx context.Context, topic string, h Handler, opts ...SubscribeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrClosed
	}

	so := newSubscribeOptions(opts...)
	ch := m.group(topic, so.group)

	var wg sync.WaitGroup
	for range so.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case d := <-ch:
					dispatch(ctx, DriverMemory, h, d)
				}
			}
		}()
	}
	wg.Wait()

	if m.closed.Load() {
		return nil
	}
	return ctx.Err()
}

func (m *Memory) group(topic, group string) chan *Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]chan *Delivery{}
		m.topics[topic] = groups
	}
	ch, ok := groups[group]
	if !ok {
		ch = make(chan *Delivery, memoryBuffer)
		groups[group] = ch
	}
	return ch
}

// Close stops all subscriptions.
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	close(m.done)
	return nil
}

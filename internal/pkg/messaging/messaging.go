package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shandysiswandi/authcore/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

var (
	// ErrTopicRequired is returned when publishing or subscribing without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Subscribe is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned by drivers that need a consumer group.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
	// ErrClosed is returned after Close.
	ErrClosed = io.ErrClosedPipe
)

// Messaging publishes and consumes messages on one broker.
type Messaging interface {
	io.Closer
	Publisher
	Subscriber
}

// Publisher sends an envelope to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, env Envelope) error
}

// Subscriber consumes a topic until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, h Handler, opts ...SubscribeOption) error
}

// Handler processes one delivery.
type Handler func(ctx context.Context, d *Delivery) error

// Envelope is an outgoing message. Key is the partition/ordering key where
// the broker supports one.
type Envelope struct {
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Delivery is a received message.
type Delivery struct {
	Topic      string
	ID         string
	Body       []byte
	Headers    map[string]string
	ReceivedAt time.Time

	ack     func(ctx context.Context) error
	nack    func(ctx context.Context) error
	settled *atomic.Bool
}

func newDelivery(topic, id string, body []byte, headers map[string]string, ack, nack func(context.Context) error) *Delivery {
	return &Delivery{
		Topic:      topic,
		ID:         id,
		Body:       body,
		Headers:    headers,
		ReceivedAt: time.Now(),
		ack:        ack,
		nack:       nack,
		settled:    atomic.NewBool(false),
	}
}

// Header returns the header value for key.
func (d *Delivery) Header(key string) string {
	return d.Headers[key]
}

// Ack confirms processing. Only the first Ack or Nack has an effect.
func (d *Delivery) Ack(ctx context.Context) error {
	if d.settled.Swap(true) || d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

// Nack asks the broker to redeliver where supported.
func (d *Delivery) Nack(ctx context.Context) error {
	if d.settled.Swap(true) || d.nack == nil {
		return nil
	}
	return d.nack(ctx)
}

// Settled reports whether Ack or Nack has been called.
func (d *Delivery) Settled() bool {
	return d.settled.Load()
}

// dispatch runs h with panic recovery and settles the delivery from its result.
func dispatch(ctx context.Context, driver string, h Handler, d *Delivery) {
	err := func() (err error) {
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", d.Topic,
					"panic", rvr, "stack", stacktrace.Internal(2))
				err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
			}
		}()
		return h(ctx, d)
	}()

	if d.Settled() {
		return
	}

	settle := d.Ack
	if err != nil {
		settle = d.Nack
	}
	if serr := settle(ctx); serr != nil {
		slog.WarnContext(ctx, "failed to settle message", "driver", driver, "topic", d.Topic, "error", serr)
	}
}

func validate(topic string, h Handler) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if h == nil {
		return ErrHandlerRequired
	}
	return nil
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

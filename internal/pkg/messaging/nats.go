package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL  string
	Name string
}

// NATS publishes with headers and consumes through queue subscriptions.
// Core NATS has no redelivery, so Ack and Nack are no-ops.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the server at cfg.URL.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.Name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	msg := nats.NewMsg(topic)
	msg.Data = env.Body
	for k, v := range env.Headers {
		msg.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

func (n *NATS) Subscribe(ctx context.Context, topic string, h Handler, opts ...SubscribeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	so := newSubscribeOptions(opts...)
	msgs := make(chan *nats.Msg, so.maxInFlight)

	sub, err := n.conn.QueueSubscribe(topic, so.group, func(m *nats.Msg) {
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range so.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-msgs:
					headers := make(map[string]string, len(m.Header))
					for k := range m.Header {
						headers[k] = m.Header.Get(k)
					}
					dispatch(ctx, DriverNATS, h, newDelivery(m.Subject, "", m.Data, headers, nil, nil))
				}
			}
		}()
	}

	<-ctx.Done()
	derr := sub.Unsubscribe()
	wg.Wait()

	return errors.Join(ctx.Err(), derr)
}

// Close drains the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

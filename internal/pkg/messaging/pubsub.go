package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when the project ID is missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub driver. Endpoint targets an
// emulator and disables authentication.
type PubSubConfig struct {
	ProjectID       string
	Endpoint        string
	CredentialsFile string
}

// PubSub publishes to topics and receives from subscriptions. Headers travel
// as message attributes and Key as the ordering key.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a Pub/Sub client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	res := p.publisher(topic).Publish(ctx, &pubsub.Message{
		Data:        env.Body,
		Attributes:  env.Headers,
		OrderingKey: string(env.Key),
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

// Subscribe receives from the subscription named by WithGroup, or by topic
// when no group is given.
func (p *PubSub) Subscribe(ctx context.Context, topic string, h Handler, opts ...SubscribeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	so := newSubscribeOptions(opts...)
	name := so.group
	if name == "" {
		name = topic
	}

	sub := p.client.Subscriber(name)
	sub.ReceiveSettings.NumGoroutines = so.concurrency
	sub.ReceiveSettings.MaxOutstandingMessages = so.maxInFlight

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := newDelivery(topic, m.ID, m.Data, m.Attributes,
			func(context.Context) error { m.Ack(); return nil },
			func(context.Context) error { m.Nack(); return nil },
		)
		dispatch(ctx, DriverGooglePubSub, h, d)
	})
}

func (p *PubSub) publisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub
}

// Close stops publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	for _, pub := range p.publishers {
		pub.Stop()
	}
	p.publishers = map[string]*pubsub.Publisher{}
	p.mu.Unlock()

	return p.client.Close()
}

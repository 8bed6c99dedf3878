package messaging

type subscribeOptions struct {
	group       string
	concurrency int
	maxInFlight int
}

// SubscribeOption configures Subscribe.
type SubscribeOption func(*subscribeOptions)

func newSubscribeOptions(opts ...SubscribeOption) subscribeOptions {
	so := subscribeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&so)
		}
	}
	if so.concurrency < 1 {
		so.concurrency = 1
	}
	if so.maxInFlight < so.concurrency {
		so.maxInFlight = so.concurrency
	}
	return so
}

// WithGroup names the load-balancing unit: NATS queue group, NSQ channel,
// Kafka consumer group or Pub/Sub subscription ID.
func WithGroup(group string) SubscribeOption {
	return func(o *subscribeOptions) { o.group = group }
}

// WithConcurrency sets how many handlers run in parallel. Kafka processes
// partitions sequentially and ignores it.
func WithConcurrency(n int) SubscribeOption {
	return func(o *subscribeOptions) { o.concurrency = n }
}

// WithMaxInFlight bounds unacknowledged messages held by the client.
func WithMaxInFlight(n int) SubscribeOption {
	return func(o *subscribeOptions) { o.maxInFlight = n }
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka driver.
type KafkaConfig struct {
	Brokers []string
}

// Kafka writes through one shared writer and reads with one consumer-group
// reader per Subscribe. Offsets are committed on Ack; a Nack leaves the
// offset uncommitted so the message is redelivered after a rebalance or restart.
type Kafka struct {
	brokers []string
	writer  *kafka.Writer
}

// NewKafka constructs a Kafka client.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: cfg.Brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, env Envelope) error {
	if topic == "" {
		return ErrTopicRequired
	}

	msg := kafka.Message{Topic: topic, Key: env.Key, Value: env.Body}
	for key, v := range env.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, topic string, h Handler, opts ...SubscribeOption) error {
	if err := validate(topic, h); err != nil {
		return err
	}

	so := newSubscribeOptions(opts...)
	if so.group == "" {
		return ErrGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  so.group,
		Topic:    topic,
		MaxBytes: 10e6,
	})

	var loopErr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			loopErr = err
			break
		}

		headers := make(map[string]string, len(m.Headers))
		for _, hd := range m.Headers {
			headers[hd.Key] = string(hd.Value)
		}

		id := m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10)
		d := newDelivery(m.Topic, id, m.Value, headers,
			func(ctx context.Context) error { return reader.CommitMessages(ctx, m) },
			nil,
		)
		dispatch(ctx, DriverKafka, h, d)
	}

	cerr := reader.Close()
	if errors.Is(loopErr, context.Canceled) || errors.Is(loopErr, context.DeadlineExceeded) {
		return errors.Join(loopErr, cerr)
	}
	return errors.Join(fmt.Errorf("messaging: kafka fetch: %w", loopErr), cerr)
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

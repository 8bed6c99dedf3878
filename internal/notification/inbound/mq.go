package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/authcore/internal/notification/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/config"
	"github.com/shandysiswandi/authcore/internal/pkg/goroutine"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/shared/event"
)

type uc interface {
	ConsumeOtpDispatch(ctx context.Context, in usecase.ConsumeOtpDispatchInput) error
}

// RegisterMQConsumer starts every consumer named in
// modules.notification.consumer_names. An empty list starts none.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	subscriber messaging.Subscriber,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.OtpDispatchConsumerNotification,
			topic:   event.OtpDispatchDestination,
			handler: h.OtpDispatch,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enabled, consumer.name) {
			continue
		}

		routine.Go(ctx, func(ctx context.Context) error {
			slog.InfoContext(ctx, "running consumer", "consumer", consumer.name, "topic", consumer.topic)
			return subscriber.Subscribe(ctx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(10),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}

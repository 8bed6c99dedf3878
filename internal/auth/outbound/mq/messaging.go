package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishOtpDispatch hands the plaintext code to the email collaborator. The
// challenge ID is the message key so redeliveries can be deduplicated.
func (m *Messaging) PublishOtpDispatch(ctx context.Context, msg usecase.OtpDispatchEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOtpDispatch")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("otp.challenge_id", msg.ChallengeID),
		attribute.String("otp.purpose", msg.Purpose.String()),
	)

	body, err := json.Marshal(event.OtpDispatchMessage{
		ChallengeID: msg.ChallengeID,
		Email:       msg.Email,
		Code:        msg.Code,
		Purpose:     msg.Purpose.String(),
		TTLSeconds:  msg.TTLSeconds,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.OtpDispatchDestination, messaging.Envelope{
		Key:     []byte(strconv.FormatInt(msg.ChallengeID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/authcore/internal/notification/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/instrument"
	"github.com/shandysiswandi/authcore/internal/pkg/messaging"
	"github.com/shandysiswandi/authcore/internal/pkg/uid"
	"github.com/shandysiswandi/authcore/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, d *messaging.Delivery) context.Context {
	if cID := d.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OtpDispatch mails one OTP. The body carries the plaintext code so it is
// never logged.
func (h *MQHandler) OtpDispatch(ctx context.Context, d *messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, d)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OtpDispatch")
	defer span.End()

	var payload event.OtpDispatchMessage
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse otp dispatch body", "msg_id", d.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: otp dispatch", "msg_id", d.ID, "challenge_id", payload.ChallengeID, "purpose", payload.Purpose)

	return h.uc.ConsumeOtpDispatch(ctx, usecase.ConsumeOtpDispatchInput{
		ChallengeID: payload.ChallengeID,
		Email:       payload.Email,
		Code:        payload.Code,
		Purpose:     payload.Purpose,
		TTLSeconds:  payload.TTLSeconds,
	})
}

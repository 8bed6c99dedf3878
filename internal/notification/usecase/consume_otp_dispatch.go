package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/authcore/internal/notification/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/idempotency"
	"github.com/shandysiswandi/authcore/internal/pkg/mail"
)

type ConsumeOtpDispatchInput struct {
	ChallengeID int64  `validate:"gt=0"`
	Email       string `validate:"required,email"`
	Code        string `validate:"required,numeric"`
	Purpose     string `validate:"required,oneof=REGISTER RESET_PASSWORD"`
	TTLSeconds  int64  `validate:"gt=0"`
}

// ConsumeOtpDispatch mails the code carried by one dispatch event. A
// malformed event is dropped. A redelivered event whose mail already went
// out is acknowledged without sending again.
func (s *Usecase) ConsumeOtpDispatch(ctx context.Context, in ConsumeOtpDispatchInput) error {
	ctx, span := s.ins.Tracer("notification.usecase").Start(ctx, "ConsumeOtpDispatch")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "drop invalid otp dispatch", "challenge_id", in.ChallengeID, "error", err)
		return nil
	}

	msg, ok := entity.RenderOtpEmail(in.Email, in.Purpose, in.Code, in.TTLSeconds)
	if !ok {
		slog.WarnContext(ctx, "drop otp dispatch with unknown purpose", "challenge_id", in.ChallengeID, "purpose", in.Purpose)
		return nil
	}

	key := "otp_dispatch:" + strconv.FormatInt(in.ChallengeID, 10)
	err := s.guard.Once(ctx, key, func(ctx context.Context) error {
		return s.repoMail.Send(ctx, mail.Message{
			To:      []string{msg.To},
			Subject: msg.Subject,
			Body:    msg.Body,
		})
	}, idempotency.WithDoneTTL(s.cfg.DedupTTL))

	switch {
	case err == nil:
		slog.InfoContext(ctx, "otp email sent", "challenge_id", in.ChallengeID, "purpose", in.Purpose)
		return nil
	case errors.Is(err, idempotency.ErrDone):
		slog.InfoContext(ctx, "otp email already sent", "challenge_id", in.ChallengeID)
		return nil
	default:
		slog.ErrorContext(ctx, "failed to send otp email", "challenge_id", in.ChallengeID, "error", err)
		return err
	}
}

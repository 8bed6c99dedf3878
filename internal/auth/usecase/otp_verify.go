package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type VerifyOtpInput struct {
	Email   string            `json:"email" validate:"required,email"`
	Purpose entity.OtpPurpose `json:"purpose" validate:"required,otp_purpose"`
	Otp     string            `json:"otp" validate:"required,numeric,len=6"`
}

// VerifyOtp checks a candidate code against the active challenge. Every
// branch that reaches a challenge persists exactly one update before
// returning, so terminal transitions survive a retried request. The update
// is conditional on the state that was read: a request that loses the race
// to a concurrent verify is answered as invalid and never succeeds.
func (s *Usecase) VerifyOtp(ctx context.Context, in VerifyOtpInput) error {
	ctx, span := s.startSpan(ctx, "VerifyOtp")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Otp = strings.TrimSpace(in.Otp)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ch, err := s.repoChallenge.GetActiveChallenge(ctx, in.Email, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		return s.otpOutcome(ctx, in.Purpose, entity.ErrOtpInvalid)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active challenge", "purpose", in.Purpose, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	seen := ch.Attempts
	var outcome error

	switch {
	case ch.IsExpired(now):
		ch.Consume(now)
		outcome = entity.ErrOtpExpired

	case ch.IsExhausted():
		ch.Consume(now)
		outcome = entity.ErrOtpTooManyAttempts

	case !s.hmac.Verify(ch.OtpHash, in.Otp):
		ch.Attempts++
		outcome = entity.ErrOtpInvalid
		if ch.IsExhausted() {
			ch.Consume(now)
			outcome = entity.ErrOtpTooManyAttempts
		}

	default:
		ch.Consume(now)
	}

	err = s.repoChallenge.SaveChallenge(ctx, *ch, seen)
	if errors.Is(err, goerror.ErrConflict) || errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "challenge changed during verify", "challenge_id", ch.ID)
		return s.otpOutcome(ctx, in.Purpose, entity.ErrOtpInvalid)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo save challenge", "challenge_id", ch.ID, "error", err)
		return goerror.NewServer(err)
	}

	return s.otpOutcome(ctx, in.Purpose, outcome)
}

func (s *Usecase) otpOutcome(ctx context.Context, purpose entity.OtpPurpose, outcome error) error {
	label := "success"
	switch {
	case errors.Is(outcome, entity.ErrOtpExpired):
		label = "expired"
	case errors.Is(outcome, entity.ErrOtpTooManyAttempts):
		label = "exhausted"
	case errors.Is(outcome, entity.ErrOtpInvalid):
		label = "invalid"
	}
	s.count(ctx, s.otpVerified, attribute.String("outcome", label), attribute.String("purpose", purpose.String()))

	if outcome == nil {
		return nil
	}
	return authError(outcome)
}

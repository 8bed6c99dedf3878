package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"github.com/shandysiswandi/authcore/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
)

type SendOtpInput struct {
	Email           string            `json:"email" validate:"required,email"`
	UserID          int64             `json:"user_id" validate:"gte=0"`
	Purpose         entity.OtpPurpose `json:"purpose" validate:"required,otp_purpose"`
	EnforceCooldown bool              `json:"-"`
}

// SendOtp issues a new challenge for (email, purpose), superseding the
// active one, and dispatches the plaintext code.
func (s *Usecase) SendOtp(ctx context.Context, in SendOtpInput) (*entity.OtpDescriptor, error) {
	ctx, span := s.startSpan(ctx, "SendOtp")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()

	active, err := s.repoChallenge.GetActiveChallenge(ctx, in.Email, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		active = nil
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active challenge", "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	resendCount := 1
	if active != nil {
		if in.EnforceCooldown && active.InCooldown(now, s.cfg.OtpResendCooldown) {
			s.count(ctx, s.otpSent, attribute.String("outcome", "cooldown"))
			return nil, authError(entity.ErrOtpResendTooSoon)
		}

		active.Consume(now)
		resendCount = active.ResendCount + 1
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "error", err)
		return nil, goerror.NewServer(err)
	}

	otpHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp", "error", err)
		return nil, goerror.NewServer(err)
	}

	challenge := entity.OtpChallenge{
		ID:          s.uid.Generate(),
		UserID:      in.UserID,
		Email:       in.Email,
		Purpose:     in.Purpose,
		OtpHash:     otpHash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.OtpExpiry),
		Attempts:    0,
		MaxAttempts: s.cfg.OtpMaxAttempts,
		LastSentAt:  now,
		ResendCount: resendCount,
		Metadata:    valueobject.JSONMap{},
	}
	if active != nil {
		challenge.Metadata["supersedes"] = strconv.FormatInt(active.ID, 10)
	}

	if err := s.repoChallenge.ReplaceChallenge(ctx, active, challenge); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace challenge", "purpose", in.Purpose, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := int64(s.cfg.OtpExpiry / time.Second)
	if err := s.repoMessaging.PublishOtpDispatch(ctx, OtpDispatchEvent{
		ChallengeID: challenge.ID,
		Email:       challenge.Email,
		Code:        code,
		Purpose:     challenge.Purpose,
		TTLSeconds:  ttl,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp dispatch", "challenge_id", challenge.ID, "error", err)
		s.count(ctx, s.otpSent, attribute.String("outcome", "dispatch_failed"))
		return nil, goerror.NewServer(err)
	}

	s.count(ctx, s.otpSent, attribute.String("outcome", "sent"), attribute.String("purpose", in.Purpose.String()))
	slog.InfoContext(ctx, "otp challenge issued", "challenge_id", challenge.ID, "purpose", in.Purpose, "resend_count", resendCount)

	return &entity.OtpDescriptor{
		EmailMasked:      entity.MaskEmail(in.Email),
		ExpiresInSeconds: ttl,
	}, nil
}

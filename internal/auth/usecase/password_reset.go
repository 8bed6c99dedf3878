package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"github.com/shandysiswandi/authcore/internal/pkg/hash"
)

type RequestPasswordResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

type RequestPasswordResetOutput struct {
	Message          string
	ExpiresInSeconds int64
}

const passwordResetRequested = "If account exists, OTP has been sent"

// RequestPasswordReset sends a RESET_PASSWORD OTP to active accounts. The
// answer is identical whether or not the account exists.
func (s *Usecase) RequestPasswordReset(ctx context.Context, in RequestPasswordResetInput) (*RequestPasswordResetOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestPasswordReset")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out := &RequestPasswordResetOutput{
		Message:          passwordResetRequested,
		ExpiresInSeconds: int64(s.cfg.OtpExpiry / time.Second),
	}

	identity, err := s.repoIdentity.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "password reset requested for unknown email")
		return out, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !identity.IsActive() {
		slog.WarnContext(ctx, "password reset requested for inactive account", "user_id", identity.ID, "status", identity.Status.String())
		return out, nil
	}

	_, err = s.SendOtp(ctx, SendOtpInput{
		Email:           identity.Email,
		UserID:          identity.ID,
		Purpose:         entity.OtpPurposeResetPassword,
		EnforceCooldown: true,
	})
	if errors.Is(err, entity.ErrOtpResendTooSoon) {
		slog.InfoContext(ctx, "password reset otp throttled", "user_id", identity.ID)
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

type VerifyPasswordResetOtpInput struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,numeric,len=6"`
}

// VerifyPasswordResetOtp exchanges a correct RESET_PASSWORD OTP for a
// short-lived reset token.
func (s *Usecase) VerifyPasswordResetOtp(ctx context.Context, in VerifyPasswordResetOtpInput) (*IssueResetTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyPasswordResetOtp")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.VerifyOtp(ctx, VerifyOtpInput{
		Email:   in.Email,
		Purpose: entity.OtpPurposeResetPassword,
		Otp:     in.Otp,
	}); err != nil {
		return nil, err
	}

	identity, err := s.repoIdentity.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity disappeared after reset otp verification")
		return nil, authError(entity.ErrOtpInvalid)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.IssueResetToken(ctx, IssueResetTokenInput{
		UserID: identity.ID,
		Email:  identity.Email,
	})
}

type ResetPasswordInput struct {
	Token       string `json:"temp_reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type ResetPasswordOutput struct {
	Message string
}

const passwordUpdated = "Password updated successfully"

// ResetPassword redeems a reset token by storing the hash of the new
// password. The token is revoked only after the write succeeds.
func (s *Usecase) ResetPassword(ctx context.Context, in ResetPasswordInput) (*ResetPasswordOutput, error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer span.End()

	in.Token = strings.TrimSpace(in.Token)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	err := s.RedeemResetToken(ctx, in.Token, func(ctx context.Context, p entity.ResetTokenPayload) error {
		hashed, err := s.bcrypt.Hash(in.NewPassword)
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return goerror.NewInvalidInput(nil, "new_password", "new_password is too long")
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash password", "error", err)
			return goerror.NewServer(err)
		}

		err = s.repoPassword.UpdatePassword(ctx, p.UserID, p.Email, hashed)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "reset token names no account", "user_id", p.UserID)
			return authError(entity.ErrResetTokenInvalid)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo update password", "user_id", p.UserID, "error", err)
			return goerror.NewServer(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "password reset completed")
	return &ResetPasswordOutput{Message: passwordUpdated}, nil
}

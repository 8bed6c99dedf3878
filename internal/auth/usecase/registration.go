package usecase

import (
	"context"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
)

type SendRegistrationOtpInput struct {
	Email  string `json:"email"`
	UserID int64  `json:"user_id"`
}

// SendRegistrationOtp issues a REGISTER challenge with the resend cooldown.
func (s *Usecase) SendRegistrationOtp(ctx context.Context, in SendRegistrationOtpInput) (*entity.OtpDescriptor, error) {
	return s.SendOtp(ctx, SendOtpInput{
		Email:           in.Email,
		UserID:          in.UserID,
		Purpose:         entity.OtpPurposeRegister,
		EnforceCooldown: true,
	})
}

type VerifyRegistrationOtpInput struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// VerifyRegistrationOtp checks a REGISTER code. Activating the account is
// left to the caller.
func (s *Usecase) VerifyRegistrationOtp(ctx context.Context, in VerifyRegistrationOtpInput) error {
	return s.VerifyOtp(ctx, VerifyOtpInput{
		Email:   in.Email,
		Purpose: entity.OtpPurposeRegister,
		Otp:     in.Otp,
	})
}

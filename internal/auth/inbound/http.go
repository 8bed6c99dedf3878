package inbound

import (
	"context"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/router"
)

type uc interface {
	SendRegistrationOtp(ctx context.Context, in usecase.SendRegistrationOtpInput) (*entity.OtpDescriptor, error)
	VerifyRegistrationOtp(ctx context.Context, in usecase.VerifyRegistrationOtpInput) error

	Introspect(ctx context.Context, in usecase.IntrospectInput) (*usecase.IntrospectOutput, error)
	Refresh(ctx context.Context, in usecase.RefreshInput) (*usecase.IssueTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error
	Authenticate(ctx context.Context, token string) (context.Context, error)
	Me(ctx context.Context) (*entity.TokenClaims, error)

	RequestPasswordReset(ctx context.Context, in usecase.RequestPasswordResetInput) (*usecase.RequestPasswordResetOutput, error)
	VerifyPasswordResetOtp(ctx context.Context, in usecase.VerifyPasswordResetOtpInput) (*usecase.IssueResetTokenOutput, error)
	VerifyResetToken(ctx context.Context, token string) (*entity.ResetTokenPayload, error)
	ResetPassword(ctx context.Context, in usecase.ResetPasswordInput) (*usecase.ResetPasswordOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration
	r.POST("/api/v1/auth/sign-up/otp", end.SendRegistrationOtp)
	r.POST("/api/v1/auth/sign-up/verify-otp", end.VerifyRegistrationOtp)

	// Session
	r.POST("/api/v1/auth/introspect", end.Introspect)
	r.POST("/api/v1/auth/refresh", end.Refresh)
	r.POST("/api/v1/auth/sign-out", end.SignOut)
	r.GET("/api/v1/auth/me", end.Me, router.Bearer(uc))

	// Password reset
	r.POST("/api/v1/auth/forgot-password", end.ForgotPassword)
	r.POST("/api/v1/auth/forgot-password/verify-otp", end.ForgotPasswordVerifyOtp)
	r.POST("/api/v1/auth/forgot-password/verify-token", end.ForgotPasswordVerifyToken)
	r.POST("/api/v1/auth/forgot-password/reset", end.ForgotPasswordReset)
}

package inbound

import (
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/shandysiswandi/authcore/internal/pkg/router"
)

// HTTPEndpoint exposes the token, OTP and password-reset flows.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) SendRegistrationOtp(r *router.Request) (any, error) {
	var req SignUpOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendRegistrationOtp(r.Context(), usecase.SendRegistrationOtpInput{
		Email:  req.Email,
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return SignUpOtpResponse{
		EmailMasked:      resp.EmailMasked,
		ExpiresInSeconds: resp.ExpiresInSeconds,
		NextStep:         "VERIFY_OTP",
	}, nil
}

func (h *HTTPEndpoint) VerifyRegistrationOtp(r *router.Request) (any, error) {
	var req VerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyRegistrationOtp(r.Context(), usecase.VerifyRegistrationOtpInput{
		Email: req.Email,
		Otp:   req.Otp,
	}); err != nil {
		return nil, err
	}

	return SignUpVerifyOtpResponse{Verified: true}, nil
}

// Introspect answers 200 for every decodable request; an unusable token is
// reported as valid=false.
func (h *HTTPEndpoint) Introspect(r *router.Request) (any, error) {
	var req TokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Introspect(r.Context(), usecase.IntrospectInput{Token: req.Token})
	if err != nil {
		return nil, err
	}

	return IntrospectResponse{Valid: resp.Valid}, nil
}

func (h *HTTPEndpoint) Refresh(r *router.Request) (any, error) {
	var req TokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Refresh(r.Context(), usecase.RefreshInput{Token: req.Token})
	if err != nil {
		return nil, err
	}

	return RefreshResponse{
		Token:     resp.Token,
		TokenType: "Bearer",
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

func (h *HTTPEndpoint) SignOut(r *router.Request) (any, error) {
	var req TokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{Token: req.Token}); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	clm, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{
		TokenID:   clm.TokenID,
		Subject:   clm.Subject,
		UserID:    clm.UserID,
		Email:     clm.Email,
		Username:  clm.Username,
		Role:      clm.Role,
		Scope:     clm.Scope,
		IssuedAt:  clm.IssuedAt,
		ExpiresAt: clm.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req ForgotPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestPasswordReset(r.Context(), usecase.RequestPasswordResetInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{
		Notice:           resp.Message,
		ExpiresInSeconds: resp.ExpiresInSeconds,
	}, nil
}

func (h *HTTPEndpoint) ForgotPasswordVerifyOtp(r *router.Request) (any, error) {
	var req VerifyOtpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyPasswordResetOtp(r.Context(), usecase.VerifyPasswordResetOtpInput{
		Email: req.Email,
		Otp:   req.Otp,
	})
	if err != nil {
		return nil, err
	}

	return ForgotPasswordVerifyOtpResponse{
		TempResetToken:   resp.Token,
		ExpiresInSeconds: resp.ExpiresIn,
	}, nil
}

func (h *HTTPEndpoint) ForgotPasswordVerifyToken(r *router.Request) (any, error) {
	var req TokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyResetToken(r.Context(), req.Token)
	if err != nil {
		return nil, err
	}

	return ForgotPasswordVerifyTokenResponse{
		Email:     resp.Email,
		UserID:    resp.UserID,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) ForgotPasswordReset(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Token:       req.TempResetToken,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return ResetPasswordResponse{Notice: resp.Message}, nil
}

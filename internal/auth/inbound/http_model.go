package inbound

import "time"

type SignUpOtpRequest struct {
	Email  string `json:"email"`
	UserID int64  `json:"user_id"`
}

type SignUpOtpResponse struct {
	EmailMasked      string `json:"email_masked"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	NextStep         string `json:"next_step"`
}

func (SignUpOtpResponse) Message() string {
	return "OTP has been sent to your email."
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type SignUpVerifyOtpResponse struct {
	Verified bool `json:"verified"`
}

func (SignUpVerifyOtpResponse) Message() string {
	return "Email has been verified."
}

type TokenRequest struct {
	Token string `json:"token"`
}

type IntrospectResponse struct {
	Valid bool `json:"valid"`
}

type RefreshResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type MeResponse struct {
	TokenID   string    `json:"jti"`
	Subject   string    `json:"sub"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	Scope     string    `json:"scope,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordResponse struct {
	Notice           string `json:"message"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

func (r ForgotPasswordResponse) Message() string { return r.Notice }

type ForgotPasswordVerifyOtpResponse struct {
	TempResetToken   string `json:"temp_reset_token"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
}

type ForgotPasswordVerifyTokenResponse struct {
	Email     string    `json:"email"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ResetPasswordRequest struct {
	TempResetToken string `json:"temp_reset_token"`
	NewPassword    string `json:"new_password"`
}

type ResetPasswordResponse struct {
	Notice string `json:"message"`
}

func (r ResetPasswordResponse) Message() string { return r.Notice }

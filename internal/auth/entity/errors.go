package entity

import "errors"

// The closed set of expected auth outcomes. Anything else reaching a caller
// is an infrastructure fault.
var (
	ErrTokenInvalid       = errors.New("auth: token invalid")
	ErrTokenRevoked       = errors.New("auth: token revoked")
	ErrOtpInvalid         = errors.New("auth: otp invalid")
	ErrOtpExpired         = errors.New("auth: otp expired")
	ErrOtpTooManyAttempts = errors.New("auth: otp too many attempts")
	ErrOtpResendTooSoon   = errors.New("auth: otp resend too soon")
	ErrResetTokenInvalid  = errors.New("auth: reset token invalid")
	ErrResetTokenExpired  = errors.New("auth: reset token expired")
)

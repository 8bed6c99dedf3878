package entity

import "fmt"

const (
	PurposeRegister      = "REGISTER"
	PurposeResetPassword = "RESET_PASSWORD"
)

const otpFooter = "\n\nThis code expires in %d minutes.\nIf you did not request this, please ignore this email."

// OtpEmail is the rendered message for one OTP dispatch.
type OtpEmail struct {
	To      string
	Subject string
	Body    string
}

// RenderOtpEmail builds the email for purpose. ok is false for an unknown
// purpose.
func RenderOtpEmail(to, purpose, code string, ttlSeconds int64) (_ OtpEmail, ok bool) {
	minutes := max(ttlSeconds/60, 1)

	var subject, intro string
	switch purpose {
	case PurposeRegister:
		subject, intro = "Your verification code", "Your verification code is: %s"
	case PurposeResetPassword:
		subject, intro = "Your password reset code", "Your password reset code is: %s"
	default:
		return OtpEmail{}, false
	}

	return OtpEmail{
		To:      to,
		Subject: subject,
		Body:    fmt.Sprintf(intro+otpFooter, code, minutes),
	}, true
}

package usecase

import (
	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
)

var businessErrors = map[error]struct {
	msg  string
	code goerror.Code
}{
	entity.ErrTokenInvalid:       {"Authentication required.", goerror.CodeUnauthorized},
	entity.ErrTokenRevoked:       {"Authentication required.", goerror.CodeUnauthorized},
	entity.ErrResetTokenInvalid:  {"Invalid reset token.", goerror.CodeUnauthorized},
	entity.ErrResetTokenExpired:  {"Reset token has expired.", goerror.CodeUnauthorized},
	entity.ErrOtpInvalid:         {"Invalid OTP.", goerror.CodeBadRequest},
	entity.ErrOtpExpired:         {"OTP has expired.", goerror.CodeBadRequest},
	entity.ErrOtpTooManyAttempts: {"Too many OTP attempts. Please request a new code.", goerror.CodeTooManyRequest},
	entity.ErrOtpResendTooSoon:   {"OTP was sent recently. Please wait before requesting again.", goerror.CodeTooManyRequest},
}

// authError wraps an entity sentinel into the business error rendered to
// clients. errors.Is(err, sentinel) keeps working on the result.
func authError(sentinel error) error {
	b, ok := businessErrors[sentinel]
	if !ok {
		return goerror.NewServer(sentinel)
	}
	return goerror.WrapBusiness(sentinel, b.msg, b.code)
}

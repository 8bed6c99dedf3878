package entity

import "strings"

type OtpPurpose string

const (
	OtpPurposeUnknown       OtpPurpose = ""
	OtpPurposeRegister      OtpPurpose = "REGISTER"
	OtpPurposeResetPassword OtpPurpose = "RESET_PASSWORD"
)

// OtpPurposeFromString parses a purpose case-insensitively. Unrecognized
// values map to OtpPurposeUnknown.
func OtpPurposeFromString(s string) OtpPurpose {
	switch p := OtpPurpose(strings.ToUpper(strings.TrimSpace(s))); p {
	case OtpPurposeRegister, OtpPurposeResetPassword:
		return p
	default:
		return OtpPurposeUnknown
	}
}

func (p OtpPurpose) String() string { return string(p) }

func (p OtpPurpose) IsValid() bool {
	return p == OtpPurposeRegister || p == OtpPurposeResetPassword
}

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not completed verification.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to use the app.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app.
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is deactivated or closed.
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

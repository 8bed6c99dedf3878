package entity

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authcore/internal/pkg/valueobject"
)

// Role is an opaque label resolved by the user-management service. A higher
// Priority wins.
type Role struct {
	Code     string
	Priority int
}

// Identity is the resolved user data needed to build token claims.
type Identity struct {
	ID       int64
	Email    string
	Username string
	Status   UserStatus
	Roles    []Role
}

func (i Identity) IsActive() bool { return i.Status == UserStatusActive }

func (i Identity) rolesByPriority() []Role {
	roles := slices.Clone(i.Roles)
	slices.SortStableFunc(roles, func(a, b Role) int { return cmp.Compare(b.Priority, a.Priority) })
	return roles
}

// PrimaryRole returns the code of the highest-priority role, or "".
func (i Identity) PrimaryRole() string {
	roles := i.rolesByPriority()
	if len(roles) == 0 {
		return ""
	}
	return roles[0].Code
}

// Scope returns "ROLE_<code>" for every role, space-joined in descending priority.
func (i Identity) Scope() string {
	return strings.Join(lo.Map(i.rolesByPriority(), func(r Role, _ int) string {
		return "ROLE_" + r.Code
	}), " ")
}

// TokenClaims is the verified content of a bearer or reset token.
type TokenClaims struct {
	TokenID   string    `json:"jti"`
	Subject   string    `json:"sub"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	Scope     string    `json:"scope,omitempty"`
	Purpose   string    `json:"purpose,omitempty"`
}

// OtpChallenge is one issued OTP. ConsumedAt == nil means active.
type OtpChallenge struct {
	ID          int64
	UserID      int64 // 0 when unknown
	Email       string
	Purpose     OtpPurpose
	OtpHash     string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
	ConsumedAt  *time.Time
	LastSentAt  time.Time
	ResendCount int
	Metadata    valueobject.JSONMap
}

func (c *OtpChallenge) IsActive() bool { return c.ConsumedAt == nil }

func (c *OtpChallenge) IsExpired(now time.Time) bool { return now.After(c.ExpiresAt) }

func (c *OtpChallenge) IsExhausted() bool { return c.Attempts >= c.MaxAttempts }

// InCooldown reports whether a resend is still blocked at now.
func (c *OtpChallenge) InCooldown(now time.Time, cooldown time.Duration) bool {
	return now.Before(c.LastSentAt.Add(cooldown))
}

// Consume marks the challenge terminal. A consumed challenge is never reopened.
func (c *OtpChallenge) Consume(now time.Time) {
	if c.ConsumedAt == nil {
		c.ConsumedAt = &now
	}
}

// OtpDescriptor is what the caller learns about a freshly issued challenge.
type OtpDescriptor struct {
	EmailMasked      string
	ExpiresInSeconds int64
}

// ResetTokenPayload is the verified content of a password-reset token.
type ResetTokenPayload struct {
	TokenID   string
	Email     string
	UserID    int64
	ExpiresAt time.Time
}

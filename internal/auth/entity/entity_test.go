package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"janedoe@example.com", "j***e@example.com"},
		{"abc@example.com", "a***c@example.com"},
		{"ab@example.com", "*@example.com"},
		{"a@example.com", "*@example.com"},
		{"@example.com", "*@example.com"},
		{"no-at-sign", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.in))
		})
	}
}

func TestIdentity_RoleClaims(t *testing.T) {
	// Arrange
	id := Identity{Roles: []Role{
		{Code: "USER", Priority: 1},
		{Code: "ADMIN", Priority: 10},
		{Code: "EDITOR", Priority: 5},
	}}

	// Act & Assert
	assert.Equal(t, "ADMIN", id.PrimaryRole())
	assert.Equal(t, "ROLE_ADMIN ROLE_EDITOR ROLE_USER", id.Scope())
	assert.Equal(t, "USER", id.Roles[0].Code, "roles must not be reordered in place")

	assert.Empty(t, Identity{}.PrimaryRole())
	assert.Empty(t, Identity{}.Scope())
}

func TestOtpChallenge_State(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c := &OtpChallenge{ExpiresAt: now.Add(5 * time.Minute), MaxAttempts: 2, LastSentAt: now}

	assert.True(t, c.IsActive())
	assert.False(t, c.IsExpired(now.Add(5*time.Minute)))
	assert.True(t, c.IsExpired(now.Add(5*time.Minute+time.Nanosecond)))
	assert.True(t, c.InCooldown(now.Add(59*time.Second), time.Minute))
	assert.False(t, c.InCooldown(now.Add(time.Minute), time.Minute))

	c.Attempts = 2
	assert.True(t, c.IsExhausted())

	c.Consume(now)
	c.Consume(now.Add(time.Hour))
	assert.False(t, c.IsActive())
	assert.Equal(t, now, *c.ConsumedAt)
}

func TestOtpPurposeFromString(t *testing.T) {
	assert.Equal(t, OtpPurposeRegister, OtpPurposeFromString(" register "))
	assert.Equal(t, OtpPurposeResetPassword, OtpPurposeFromString("RESET_PASSWORD"))
	assert.Equal(t, OtpPurposeUnknown, OtpPurposeFromString("LOGIN"))
	assert.False(t, OtpPurposeUnknown.IsValid())
}

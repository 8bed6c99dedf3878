package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/authcore/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("s", 64))

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "jti-" + string(rune('0'+s.n))
}

func newTestSymmetric(t *testing.T, c *clock.Frozen) *Symmetric {
	t.Helper()
	s, err := NewHS512(Config{Secret: testSecret, Issuer: "auth-service", Clock: c, UUID: &seqID{}})
	require.NoError(t, err)
	return s
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short"), Clock: clock.New(), UUID: &seqID{}})

	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestSymmetric_GenerateAndVerify(t *testing.T) {
	// Arrange
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := clock.NewFrozen(start)
	s := newTestSymmetric(t, c)

	// Act
	token, issued, err := s.Generate(Claims{
		RegisteredClaims: libJWT.RegisteredClaims{Subject: "jane@example.com"},
		UserID:           7,
		Email:            "jane@example.com",
		Role:             "ADMIN",
		Scope:            "ROLE_ADMIN ROLE_USER",
	}, time.Hour)
	require.NoError(t, err)

	// Assert
	assert.Len(t, strings.Split(token, "."), 3)
	assert.Equal(t, "jti-1", issued.ID)
	assert.Equal(t, start.Add(time.Hour), issued.ExpiresAt.Time)

	got, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Subject)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "auth-service", got.Issuer)
	assert.Equal(t, "ROLE_ADMIN ROLE_USER", got.Scope)
}

func TestSymmetric_Verify_ExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := clock.NewFrozen(start)
	s := newTestSymmetric(t, c)
	token, _, err := s.Generate(Claims{}, time.Minute)
	require.NoError(t, err)

	c.Set(start.Add(time.Minute - time.Second))
	_, err = s.Verify(token)
	assert.NoError(t, err)

	c.Set(start.Add(time.Minute))
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Generate_SubSecondIssueShortensLifetime(t *testing.T) {
	// Arrange
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := clock.NewFrozen(start.Add(500 * time.Millisecond))
	s := newTestSymmetric(t, c)

	// Act
	token, claims, err := s.Generate(Claims{}, time.Minute)
	require.NoError(t, err)

	// Assert
	assert.True(t, claims.IssuedAt.Time.Equal(start))
	assert.True(t, claims.ExpiresAt.Time.Equal(start.Add(time.Minute)))

	c.Set(start.Add(time.Minute - time.Millisecond))
	_, err = s.Verify(token)
	assert.NoError(t, err)

	c.Set(start.Add(time.Minute))
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired, "expired 500ms before issue time plus ttl")
}

func TestSymmetric_Verify_RefreshWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := clock.NewFrozen(start)
	s := newTestSymmetric(t, c)
	token, _, err := s.Generate(Claims{}, time.Minute)
	require.NoError(t, err)

	c.Set(start.Add(30 * time.Minute))
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = s.Verify(token, WithRefreshWindow(time.Hour))
	assert.NoError(t, err)

	c.Set(start.Add(time.Hour))
	_, err = s.Verify(token, WithRefreshWindow(time.Hour))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Verify_Tampered(t *testing.T) {
	c := clock.NewFrozen(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s := newTestSymmetric(t, c)
	token, _, err := s.Generate(Claims{Email: "a@b.c"}, time.Minute)
	require.NoError(t, err)

	other, err := NewHS512(Config{Secret: []byte(strings.Repeat("x", 64)), Issuer: "auth-service", Clock: c, UUID: &seqID{}})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		s     *Symmetric
	}{
		{name: "garbage", token: "not-a-token", s: s},
		{name: "wrong key", token: token, s: other},
		{name: "truncated signature", token: token[:len(token)-4], s: s},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = tt.s.Verify(tt.token, WithRefreshWindow(time.Hour))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSymmetric_Verify_RejectsOtherAlgorithms(t *testing.T) {
	c := clock.NewFrozen(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s := newTestSymmetric(t, c)

	now := c.Now()
	token, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Issuer:    "auth-service",
			IssuedAt:  libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetAuth(ctx))

	ctx = SetAuth(ctx, Claims{Email: "jane@example.com"})

	got := GetAuth(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", got.Email)
}

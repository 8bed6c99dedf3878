package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when exp, or iat + refresh window, has passed.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT signs and verifies tokens.
type JWT interface {
	// Generate fills the registered claims (jti, iss, iat, exp) and signs.
	Generate(claims Claims, ttl time.Duration) (string, Claims, error)
	// Verify parses and validates a token.
	Verify(tokenStr string, opts ...VerifyOption) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	Clock     clocker
	UUID      generator
}

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

type verifyOptions struct {
	refreshWindow time.Duration
}

// VerifyOption tunes a single Verify call.
type VerifyOption func(*verifyOptions)

// WithRefreshWindow validates the token against iat + window instead of exp.
// A zero or negative window is ignored.
func WithRefreshWindow(window time.Duration) VerifyOption {
	return func(o *verifyOptions) {
		if window > 0 {
			o.refreshWindow = window
		}
	}
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT signing and verification using an HMAC secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	clock     clocker
	uuid      generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	if cfg.Clock == nil || cfg.UUID == nil {
		return nil, errors.New("jwt: clock and uuid generator are required")
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Generate assigns a fresh jti, stamps iss/iat/exp and signs the claims.
// Timestamps are truncated to whole seconds so the returned claims match the
// encoded ones exactly. The issue time is rounded down before ttl is added,
// so a token lives between ttl-1s and ttl: one generated at T+500ms with a
// one minute ttl expires at T+1m, not T+1m500ms.
func (s *Symmetric) Generate(claims Claims, ttl time.Duration) (string, Claims, error) {
	now := s.clock.Now().Truncate(time.Second)

	claims.ID = s.uuid.Generate()
	claims.Issuer = s.issuer
	claims.IssuedAt = libJWT.NewNumericDate(now)
	claims.ExpiresAt = libJWT.NewNumericDate(now.Add(ttl))
	if len(s.audiences) > 0 {
		claims.Audience = s.audiences
	}

	token, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, err
	}

	return token, claims, nil
}

// Verify parses and validates a JWT string.
//
// Without options the token must carry a valid exp. With WithRefreshWindow
// the exp claim is ignored and the token is accepted while now < iat + window.
func (s *Symmetric) Verify(tokenStr string, opts ...VerifyOption) (Claims, error) {
	var vo verifyOptions
	for _, opt := range opts {
		opt(&vo)
	}

	parserOpts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithTimeFunc(s.clock.Now),
	}

	if vo.refreshWindow > 0 {
		parserOpts = append(parserOpts, libJWT.WithoutClaimsValidation())
	} else {
		parserOpts = append(parserOpts,
			libJWT.WithIssuer(s.issuer),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
		)
		if len(s.audiences) > 0 {
			parserOpts = append(parserOpts, libJWT.WithAudience(s.audiences...))
		}
	}

	var claims Claims
	token, err := libJWT.ParseWithClaims(tokenStr, &claims, s.keyFunc, parserOpts...)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if vo.refreshWindow > 0 {
		if err := s.checkRefreshable(claims, vo.refreshWindow); err != nil {
			return Claims{}, err
		}
	}

	return claims, nil
}

func (s *Symmetric) keyFunc(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.secret, nil
}

func (s *Symmetric) checkRefreshable(claims Claims, window time.Duration) error {
	if claims.Issuer != s.issuer {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}

	if claims.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}

	now := s.clock.Now()
	if now.Before(claims.IssuedAt.Time) {
		return fmt.Errorf("%w: issued in the future", ErrInvalidToken)
	}

	if !now.Before(claims.IssuedAt.Add(window)) {
		return ErrTokenExpired
	}

	return nil
}

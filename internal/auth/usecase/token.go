package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/pkg/goerror"
	"github.com/shandysiswandi/authcore/internal/pkg/jwt"
	"go.opentelemetry.io/otel/attribute"
)

type IssueTokenInput struct {
	Identity entity.Identity
	// TTL overrides AccessTokenTTL when positive.
	TTL time.Duration
}

type IssueTokenOutput struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	ExpiresIn int64
}

// IssueToken signs a bearer token for a resolved identity.
func (s *Usecase) IssueToken(ctx context.Context, in IssueTokenInput) (*IssueTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueToken")
	defer span.End()

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.cfg.AccessTokenTTL
	}

	id := in.Identity
	clm := jwt.Claims{
		UserID:   id.ID,
		Email:    id.Email,
		Username: id.Username,
		Role:     id.PrimaryRole(),
		Scope:    id.Scope(),
	}
	clm.Subject = id.Email

	token, claims, err := s.jwt.Generate(clm, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign access token", "user_id", id.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.count(ctx, s.tokenIssued, attribute.String("kind", "access"))

	return &IssueTokenOutput{
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: int64(ttl / time.Second),
	}, nil
}

type VerifyTokenInput struct {
	Token string
	// RefreshWindow, when positive, accepts the token until iat + window
	// instead of exp.
	RefreshWindow time.Duration
}

// VerifyToken checks signature, expiry and revocation. It never writes.
func (s *Usecase) VerifyToken(ctx context.Context, in VerifyTokenInput) (*entity.TokenClaims, error) {
	ctx, span := s.startSpan(ctx, "VerifyToken")
	defer span.End()

	claims, err := s.verify(ctx, in.Token, in.RefreshWindow)
	if err != nil {
		return nil, err
	}

	return toTokenClaims(claims), nil
}

// verify returns authError(ErrTokenInvalid|ErrTokenRevoked) for rejected
// tokens and a server error when the revocation store fails.
func (s *Usecase) verify(ctx context.Context, token string, window time.Duration) (jwt.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return jwt.Claims{}, authError(entity.ErrTokenInvalid)
	}

	claims, err := s.jwt.Verify(token, jwt.WithRefreshWindow(window))
	if err != nil {
		slog.DebugContext(ctx, "token rejected", "error", err)
		return jwt.Claims{}, authError(entity.ErrTokenInvalid)
	}

	if claims.ID == "" {
		return jwt.Claims{}, authError(entity.ErrTokenInvalid)
	}

	revoked, err := s.repoRevoke.IsRevoked(ctx, claims.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check revocation", "token_id", claims.ID, "error", err)
		return jwt.Claims{}, goerror.NewServer(err)
	}
	if revoked {
		return jwt.Claims{}, authError(entity.ErrTokenRevoked)
	}

	return claims, nil
}

// InvalidateToken revokes tokenID until expiresAt. Repeating it is a no-op.
func (s *Usecase) InvalidateToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ctx, span := s.startSpan(ctx, "InvalidateToken")
	defer span.End()

	if tokenID == "" {
		return goerror.NewInvalidInput(nil, "token_id", "token_id is required")
	}

	if err := s.repoRevoke.Revoke(ctx, tokenID, expiresAt); err != nil && !errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "failed to repo revoke token", "token_id", tokenID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// Authenticate verifies a bearer credential for protected routes and puts
// its claims into the returned context. Purpose-tagged tokens (reset
// tokens) are not bearer credentials.
func (s *Usecase) Authenticate(ctx context.Context, token string) (context.Context, error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	claims, err := s.verify(ctx, token, 0)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != "" {
		slog.WarnContext(ctx, "purpose token presented as bearer", "purpose", claims.Purpose, "token_id", claims.ID)
		return nil, authError(entity.ErrTokenInvalid)
	}

	return jwt.SetAuth(ctx, claims), nil
}

func toTokenClaims(c jwt.Claims) *entity.TokenClaims {
	out := &entity.TokenClaims{
		TokenID:  c.ID,
		Subject:  c.Subject,
		Issuer:   c.Issuer,
		UserID:   c.UserID,
		Email:    c.Email,
		Username: c.Username,
		Role:     c.Role,
		Scope:    c.Scope,
		Purpose:  c.Purpose,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.UTC()
	}
	return out
}

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
)

type IntrospectInput struct {
	Token string `json:"token" validate:"required"`
}

type IntrospectOutput struct {
	Valid bool
}

// Introspect reports whether a token verifies right now. Rejections are
// never errors.
func (s *Usecase) Introspect(ctx context.Context, in IntrospectInput) (*IntrospectOutput, error) {
	ctx, span := s.startSpan(ctx, "Introspect")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.verify(ctx, in.Token, 0); err != nil {
		if isTokenRejection(err) {
			return &IntrospectOutput{Valid: false}, nil
		}
		return nil, err
	}

	return &IntrospectOutput{Valid: true}, nil
}

type LogoutInput struct {
	Token string `json:"token" validate:"required"`
}

// Logout revokes the presented token. Already invalid or revoked tokens
// are accepted silently.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	claims, err := s.verify(ctx, in.Token, s.cfg.RefreshWindow)
	if err != nil {
		if isTokenRejection(err) {
			slog.InfoContext(ctx, "logout with unusable token ignored", "reason", err)
			return nil
		}
		return err
	}

	return s.InvalidateToken(ctx, claims.ID, s.revocationExpiry(claims))
}

type RefreshInput struct {
	Token string `json:"token" validate:"required"`
}

// Refresh rotates a token still inside its refresh window: the old jti is
// revoked and a new token is issued from fresh identity data.
func (s *Usecase) Refresh(ctx context.Context, in RefreshInput) (*IssueTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "Refresh")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	claims, err := s.verify(ctx, in.Token, s.cfg.RefreshWindow)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != "" {
		slog.WarnContext(ctx, "purpose token presented for refresh", "purpose", claims.Purpose, "token_id", claims.ID)
		return nil, authError(entity.ErrTokenInvalid)
	}

	if err := s.InvalidateToken(ctx, claims.ID, s.revocationExpiry(claims)); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = claims.Subject
	}

	identity, err := s.repoIdentity.GetIdentityByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity of refreshed token no longer exists", "token_id", claims.ID)
		return nil, authError(entity.ErrTokenInvalid)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "token_id", claims.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.IssueToken(ctx, IssueTokenInput{Identity: *identity})
}

// Me returns the claims placed in ctx by Authenticate.
func (s *Usecase) Me(ctx context.Context) (*entity.TokenClaims, error) {
	_, span := s.startSpan(ctx, "Me")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, authError(entity.ErrTokenInvalid)
	}

	return toTokenClaims(*clm), nil
}

// revocationExpiry keeps a revocation record for as long as the token could
// still pass verification through the refresh window.
func (s *Usecase) revocationExpiry(c jwt.Claims) time.Time {
	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		if w := c.IssuedAt.Add(s.cfg.RefreshWindow); w.After(exp) {
			exp = w
		}
	}
	return exp
}

func isTokenRejection(err error) bool {
	return errors.Is(err, entity.ErrTokenInvalid) || errors.Is(err, entity.ErrTokenRevoked)
}

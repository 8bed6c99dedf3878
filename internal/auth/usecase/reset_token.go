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

type IssueResetTokenInput struct {
	UserID int64  `json:"user_id" validate:"gte=0"`
	Email  string `json:"email" validate:"required,email"`
}

type IssueResetTokenOutput struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	ExpiresIn int64
}

// IssueResetToken signs a single-purpose password-reset token. It uses the
// bearer key but carries purpose=RESET_PASSWORD, which bearer checks reject.
func (s *Usecase) IssueResetToken(ctx context.Context, in IssueResetTokenInput) (*IssueResetTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueResetToken")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm := jwt.Claims{
		UserID:  in.UserID,
		Email:   in.Email,
		Purpose: entity.OtpPurposeResetPassword.String(),
	}
	clm.Subject = in.Email

	token, claims, err := s.jwt.Generate(clm, s.cfg.ResetTokenTTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign reset token", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.count(ctx, s.tokenIssued, attribute.String("kind", "reset"))

	return &IssueResetTokenOutput{
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: int64(s.cfg.ResetTokenTTL / time.Second),
	}, nil
}

// VerifyResetToken validates a reset token without consuming it.
func (s *Usecase) VerifyResetToken(ctx context.Context, token string) (*entity.ResetTokenPayload, error) {
	ctx, span := s.startSpan(ctx, "VerifyResetToken")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, authError(entity.ErrResetTokenInvalid)
	}

	claims, err := s.jwt.Verify(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, authError(entity.ErrResetTokenExpired)
	}
	if err != nil {
		slog.DebugContext(ctx, "reset token rejected", "error", err)
		return nil, authError(entity.ErrResetTokenInvalid)
	}

	if claims.Purpose != entity.OtpPurposeResetPassword.String() || strings.TrimSpace(claims.Email) == "" || claims.ID == "" {
		slog.WarnContext(ctx, "token is not a usable reset token", "token_id", claims.ID, "purpose", claims.Purpose)
		return nil, authError(entity.ErrResetTokenInvalid)
	}

	revoked, err := s.repoRevoke.IsRevoked(ctx, claims.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check revocation", "token_id", claims.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if revoked {
		return nil, authError(entity.ErrResetTokenInvalid)
	}

	return &entity.ResetTokenPayload{
		TokenID:   claims.ID,
		Email:     claims.Email,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

var errMutationRequired = errors.New("auth: password mutation is required")

// PasswordMutation applies the new password for a verified reset payload.
type PasswordMutation func(ctx context.Context, p entity.ResetTokenPayload) error

// RedeemResetToken verifies the token, runs mutate and, only when it
// succeeds, revokes the token so it cannot be used again.
func (s *Usecase) RedeemResetToken(ctx context.Context, token string, mutate PasswordMutation) error {
	ctx, span := s.startSpan(ctx, "RedeemResetToken")
	defer span.End()

	payload, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	if mutate == nil {
		return goerror.NewServer(errMutationRequired)
	}

	if err := mutate(ctx, *payload); err != nil {
		return err
	}

	return s.InvalidateToken(ctx, payload.TokenID, payload.ExpiresAt)
}

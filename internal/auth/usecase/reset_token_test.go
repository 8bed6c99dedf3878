package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_IssueAndVerifyResetToken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	out, err := f.uc.IssueResetToken(ctx, usecase.IssueResetTokenInput{UserID: 42, Email: "JaneDoe@Example.com"})
	require.NoError(t, err)
	payload, err := f.uc.VerifyResetToken(ctx, out.Token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(600), out.ExpiresIn)
	assert.Equal(t, out.TokenID, payload.TokenID)
	assert.Equal(t, "janedoe@example.com", payload.Email)
	assert.Equal(t, int64(42), payload.UserID)
	assert.True(t, payload.ExpiresAt.Equal(t0.Add(10*time.Minute)))
}

func TestUsecase_VerifyResetToken_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access, err := f.uc.IssueToken(ctx, usecase.IssueTokenInput{Identity: jane})
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", access.Token} {
		_, err := f.uc.VerifyResetToken(ctx, tok)
		assertBusiness(t, err, entity.ErrResetTokenInvalid, http.StatusUnauthorized, "Invalid reset token.")
	}
}

func TestUsecase_VerifyResetToken_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.uc.IssueResetToken(ctx, usecase.IssueResetTokenInput{UserID: 42, Email: jane.Email})
	require.NoError(t, err)

	f.clock.Set(t0.Add(10*time.Minute - time.Second))
	_, err = f.uc.VerifyResetToken(ctx, out.Token)
	require.NoError(t, err)

	f.clock.Set(t0.Add(10 * time.Minute))
	_, err = f.uc.VerifyResetToken(ctx, out.Token)
	assertBusiness(t, err, entity.ErrResetTokenExpired, http.StatusUnauthorized, "Reset token has expired.")
}

func TestUsecase_RedeemResetToken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.uc.IssueResetToken(ctx, usecase.IssueResetTokenInput{UserID: 42, Email: jane.Email})
	require.NoError(t, err)

	var calls []entity.ResetTokenPayload
	mutate := func(_ context.Context, p entity.ResetTokenPayload) error {
		calls = append(calls, p)
		return nil
	}

	// Act
	err = f.uc.RedeemResetToken(ctx, out.Token, mutate)

	// Assert
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, int64(42), calls[0].UserID)

	err = f.uc.RedeemResetToken(ctx, out.Token, mutate)
	assertBusiness(t, err, entity.ErrResetTokenInvalid, http.StatusUnauthorized, "Invalid reset token.")
	assert.Len(t, calls, 1, "mutation runs once")
}

func TestUsecase_RedeemResetToken_MutationFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.uc.IssueResetToken(ctx, usecase.IssueResetTokenInput{UserID: 42, Email: jane.Email})
	require.NoError(t, err)

	err = f.uc.RedeemResetToken(ctx, out.Token, func(context.Context, entity.ResetTokenPayload) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)

	err = f.uc.RedeemResetToken(ctx, out.Token, func(context.Context, entity.ResetTokenPayload) error { return nil })
	assert.NoError(t, err)
}

func TestUsecase_RedeemResetToken_NilMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.uc.IssueResetToken(ctx, usecase.IssueResetTokenInput{UserID: 42, Email: jane.Email})
	require.NoError(t, err)

	err = f.uc.RedeemResetToken(ctx, out.Token, nil)

	assertServer(t, err)
	_, err = f.uc.VerifyResetToken(ctx, out.Token)
	assert.NoError(t, err)
}

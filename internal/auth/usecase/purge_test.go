package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/authcore/internal/auth/entity"
	"github.com/shandysiswandi/authcore/internal/auth/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Purge(t *testing.T) {
	// Arrange
	f := newFixture(t, func(c *usecase.Config) { c.ChallengeRetention = time.Hour })
	ctx := context.Background()

	require.NoError(t, f.uc.InvalidateToken(ctx, "old", t0.Add(time.Minute)))
	require.NoError(t, f.uc.InvalidateToken(ctx, "new", t0.Add(48*time.Hour)))

	_, err := f.uc.SendOtp(ctx, usecase.SendOtpInput{Email: otpEmail, Purpose: entity.OtpPurposeRegister})
	require.NoError(t, err)
	require.NoError(t, verifyRegister(f, "123456"))
	_, err = f.uc.SendOtp(ctx, usecase.SendOtpInput{Email: otpEmail, Purpose: entity.OtpPurposeResetPassword})
	require.NoError(t, err)

	// Act
	f.clock.Set(t0.Add(2 * time.Hour))
	out, err := f.uc.Purge(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &usecase.PurgeOutput{Revocations: 1, Challenges: 1}, out)
	assert.Len(t, f.challenges.All(), 1, "open challenges are never purged")

	revoked, err := f.revocations.IsRevoked(ctx, "new")
	require.NoError(t, err)
	assert.True(t, revoked)

	again, err := f.uc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, &usecase.PurgeOutput{}, again)
}

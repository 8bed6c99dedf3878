package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt(t *testing.T) {
	// Arrange
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	// Act
	hashed, err := h.Hash("s3cret!")

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2a$04$"))
	assert.True(t, h.Verify(hashed, "s3cret!"))
	assert.False(t, h.Verify(hashed, "s3cret"))
	assert.False(t, NewBcrypt(bcrypt.MinCost, "other").Verify(hashed, "s3cret!"))
	assert.False(t, h.Verify("not-a-hash", "s3cret!"))
}

func TestBcrypt_CostFallback(t *testing.T) {
	h := NewBcrypt(99, "")

	hashed, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestBcrypt_TooLong(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost, "pepper")

	_, err := h.Hash(strings.Repeat("a", 70))

	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

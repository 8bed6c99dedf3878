package otp

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestNumeric_Generate(t *testing.T) {
	g := NewNumeric(otp.DigitsSix)

	seen := map[string]struct{}{}
	for range 200 {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 150)
}

func TestNumeric_ZeroPadded(t *testing.T) {
	// Arrange
	g := NewNumeric(otp.DigitsSix)
	g.rand = bytes.NewReader(make([]byte, 64))

	// Act
	code, err := g.Generate()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "000000", code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNumeric_RandFailure(t *testing.T) {
	g := NewNumeric(otp.DigitsSix)
	g.rand = failingReader{}

	_, err := g.Generate()

	assert.Error(t, err)
}

func TestNewNumeric_Eight(t *testing.T) {
	code, err := NewNumeric(otp.DigitsEight).Generate()

	require.NoError(t, err)
	assert.Len(t, code, 8)
}

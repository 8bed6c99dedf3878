package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces fresh one-time passcodes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws uniformly distributed zero-padded numeric codes from a
// cryptographically secure source.
type Numeric struct {
	digits otp.Digits
	limit  *big.Int
	rand   io.Reader
}

// NewNumeric returns a generator of the given length. Anything other than
// otp.DigitsEight falls back to six digits.
func NewNumeric(digits otp.Digits) *Numeric {
	if digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	limit := big.NewInt(1)
	for range digits.Length() {
		limit.Mul(limit, big.NewInt(10))
	}

	return &Numeric{digits: digits, limit: limit, rand: rand.Reader}
}

// Generate returns a new code such as "004217".
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.rand, n.limit)
	if err != nil {
		return "", err
	}

	return n.digits.Format(int32(v.Int64())), nil
}

package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptySecret is returned when the hashing key is blank.
var ErrEmptySecret = errors.New("hash: secret must not be empty")

// Hash is a one-way keyed hash with constant-time verification.
type Hash interface {
	Hash(str string) (string, error)
	Verify(hashed, str string) bool
}

// HMACSHA256 hashes with HMAC-SHA256 and hex-encodes the digest.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a hasher keyed with secret.
func NewHMACSHA256(secret string) (*HMACSHA256, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	return &HMACSHA256{secret: []byte(secret)}, nil
}

// Hash returns the lowercase hex HMAC of str.
func (s *HMACSHA256) Hash(str string) (string, error) {
	return hex.EncodeToString(s.sum(str)), nil
}

// Verify reports whether str hashes to hashed. A malformed hash never matches.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil {
		return false
	}
	return hmac.Equal(want, s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return h.Sum(nil)
}

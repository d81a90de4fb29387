// Package passwords hashes and verifies account passwords with bcrypt.
package passwords

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest password accepted at signup or reset.
const MinLength = 8

// ErrTooShort is returned when a password is shorter than MinLength.
var ErrTooShort = errors.New("password must be at least 8 characters")

// Hasher wraps bcrypt with a configurable cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher. A cost outside bcrypt's range falls back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash validates length and returns the bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) < MinLength {
		return "", ErrTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. An empty hash never matches
// (accounts created through Google sign-in have no password).
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

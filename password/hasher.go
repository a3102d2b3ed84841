package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/loomworks/authcore/errors"
)

// DefaultMinLength is the minimum accepted password length.
const DefaultMinLength = 8

// Hasher hashes and verifies passwords using bcrypt with an adaptive cost
// factor. The zero value is not usable; construct with NewHasher.
type Hasher struct {
	cost      int
	minLength int
}

// Option configures the hasher.
type Option func(*Hasher)

// WithCost sets the bcrypt cost parameter (default: 12, range: 4-31).
func WithCost(cost int) Option {
	return func(h *Hasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithMinLength sets the minimum accepted password length (default: 8).
func WithMinLength(n int) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.minLength = n
		}
	}
}

// NewHasher creates a bcrypt-based password hasher.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{cost: 12, minLength: DefaultMinLength}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MinLength returns the configured minimum password length.
func (h *Hasher) MinLength() int { return h.minLength }

// Hash returns a bcrypt hash of the password. Passwords below the
// configured minimum are rejected before any hashing work.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", errors.WeakPassword(h.minLength)
	}
	if len(password) > 72 {
		return "", fmt.Errorf("password: maximum length is 72 characters (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify checks if a password matches the given hash. Returns a
// CREDENTIAL_MISMATCH error when they differ.
func (h *Hasher) Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errors.CredentialMismatch().WithCause(err)
	}
	return nil
}

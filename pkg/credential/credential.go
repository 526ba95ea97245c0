// Package credential hashes and verifies account passwords with bcrypt.
package credential

import (
	"fmt"
	"strings"

	"anoa.com/warbler/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

// Length limits apply to new passwords only; Verify accepts any input.
// bcrypt cannot hash more than MaxPasswordLength bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost is out of range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash rejects blank or short passwords before any hashing happens.
func (h *Hasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", apperror.Validation("password is required")
	}
	if len(password) < MinPasswordLength {
		return "", apperror.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return "", apperror.Validation(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *Hasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package repository

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt. It keeps a decoy
// hash of the same cost so that a lookup miss costs as much as a real
// comparison.
type PasswordHasher struct {
	cost  int
	decoy []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate decoy seed: %w", err)
	}

	// bcrypt only looks at the first 72 bytes; 32 random bytes are plenty.
	decoy, err := bcrypt.GenerateFromPassword(seed, cost)
	if err != nil {
		return nil, fmt.Errorf("generate decoy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, decoy: decoy}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordRejected
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. An empty hash is compared
// against the decoy and always fails.
func (h *PasswordHasher) Compare(hash string, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

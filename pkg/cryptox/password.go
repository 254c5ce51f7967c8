package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when callers don't supply one.
// Cost 10 keeps hashing around ~100ms on current hardware, slow enough to
// make offline guessing expensive without hurting interactive login.
const DefaultCost = 10

// ErrPasswordMismatch is returned by VerifyPassword when the plaintext does
// not match the stored hash, or when the stored hash is malformed. The two
// cases are deliberately not distinguishable to callers.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword derives a salted bcrypt hash of the plaintext at DefaultCost.
// bcrypt generates a fresh random salt internally, so hashing the same
// plaintext twice produces two different encoded values.
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, DefaultCost)
}

// HashPasswordCost is HashPassword with an explicit work factor. Costs
// outside bcrypt's supported range are rejected before any work is done.
func HashPasswordCost(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("cryptox: bcrypt cost %d out of range [%d, %d]",
			cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// The salt and cost are recovered from the encoded hash itself and the
// comparison inside bcrypt is constant-time. Any failure, including a
// malformed encodedHash, is reported as ErrPasswordMismatch.
func VerifyPassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// Package auth implements the identity primitives of the studio:
// password hashing, session-token issuance and verification, and
// publishable/secret API key generation.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor used by every deployed account.
// Changing it only affects newly hashed passwords.
const bcryptCost = 10

// ErrCredential is returned for any internal hashing failure. The raw
// password never appears in errors or logs.
var ErrCredential = errors.New("credential error")

// HashPassword derives a salted bcrypt hash from the raw password.
// Each call produces a different hash (fresh salt).
func HashPassword(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcryptCost)
	if err != nil {
		return "", ErrCredential
	}
	return string(hashed), nil
}

// VerifyPassword reports whether raw matches the stored hash, using
// bcrypt's own constant-time comparison.
func VerifyPassword(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

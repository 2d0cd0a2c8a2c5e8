package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/voxai/apiserver/types"
)

// Key prefixes for the publishable and secret API keys.
const (
	publicKeyPrefix = "pk_"
	secretKeyPrefix = "sk_"
)

// NewPublicKey returns a fresh publishable key: "pk_" + 16 random
// bytes hex-encoded.
func NewPublicKey() (string, error) {
	return newKey(publicKeyPrefix)
}

// NewSecretKey returns a fresh secret key: "sk_" + 16 random bytes
// hex-encoded.
func NewSecretKey() (string, error) {
	return newKey(secretKeyPrefix)
}

func newKey(prefix string) (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", ErrCredential
	}
	return prefix + hex.EncodeToString(buf[:]), nil
}

// EnsureKeys fills in missing public/secret keys on accounts created
// before keys existed. It is idempotent: existing keys are untouched.
// Returns true when the account was modified and needs persisting.
func EnsureKeys(user *types.User) (bool, error) {
	changed := false
	if user.PublicKey == "" {
		key, err := NewPublicKey()
		if err != nil {
			return false, err
		}
		user.PublicKey = key
		changed = true
	}
	if user.SecretKey == "" {
		key, err := NewSecretKey()
		if err != nil {
			return false, err
		}
		user.SecretKey = key
		changed = true
	}
	return changed, nil
}

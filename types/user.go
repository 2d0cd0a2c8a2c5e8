package types

import "time"

// User represents a registered account in the studio.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is the user's login email. Unique across all users;
	// matching is case-sensitive.
	Email string `json:"email" db:"email"`

	// DisplayName is an optional name shown in the studio UI.
	DisplayName string `json:"displayName" db:"display_name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// PublicKey is the publishable widget key ("pk_" + 32 hex chars).
	// Empty for accounts created before keys existed; repaired on load.
	PublicKey string `json:"publicKey" db:"public_key"`

	// SecretKey is the server-side API key ("sk_" + 32 hex chars).
	SecretKey string `json:"secretKey" db:"secret_key"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent account update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile is the projection of a User returned by the API.
// It always excludes the password hash.
type PublicProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PublicKey   string `json:"publicKey"`
	SecretKey   string `json:"secretKey"`
}

// Profile returns the public-safe projection of the user.
func (u User) Profile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PublicKey:   u.PublicKey,
		SecretKey:   u.SecretKey,
	}
}

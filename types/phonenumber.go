package types

import "time"

// PhoneNumber is an imported telephony number owned by a user. The
// number itself is provisioned with an external carrier; this record
// only tracks the import and an optional assistant link.
type PhoneNumber struct {
	// ID is the unique identifier of the imported number.
	ID string `json:"id" db:"id"`

	// UserID is the owning account.
	UserID string `json:"userId" db:"user_id"`

	// Number is the E.164-formatted phone number.
	Number string `json:"number" db:"number"`

	// Label is an optional human-readable label.
	Label string `json:"label" db:"label"`

	// Status is the provisioning status, e.g. "active".
	Status string `json:"status" db:"status"`

	// AssistantID links the number to one of the owner's assistants.
	// Empty when unlinked.
	AssistantID string `json:"assistantId" db:"assistant_id"`

	// CreatedAt is the import timestamp.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

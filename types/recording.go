package types

import "time"

// Recording is a stored test-call audio clip attached to an assistant.
// The audio bytes live in object storage under ObjectKey; this row is
// only the metadata.
type Recording struct {
	// ID is the unique identifier of the recording.
	ID string `json:"id" db:"id"`

	// AssistantID is the assistant this clip was recorded against.
	AssistantID string `json:"assistantId" db:"assistant_id"`

	// UserID is the owning account, denormalized from the assistant so
	// ownership checks never need a join.
	UserID string `json:"userId" db:"user_id"`

	// ObjectKey is the object-storage key of the audio blob.
	ObjectKey string `json:"-" db:"object_key"`

	// Filename is the original upload filename.
	Filename string `json:"filename" db:"filename"`

	// ContentType is the MIME type of the audio blob.
	ContentType string `json:"contentType" db:"content_type"`

	// SizeBytes is the stored blob size.
	SizeBytes int64 `json:"sizeBytes" db:"size_bytes"`

	// CreatedAt is the upload timestamp.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

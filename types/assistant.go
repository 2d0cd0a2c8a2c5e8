package types

import (
	"encoding/json"
	"time"
)

// Assistant is a voice-agent configuration owned by a single user.
type Assistant struct {
	// ID is the unique identifier of the assistant.
	ID string `json:"id" db:"id"`

	// UserID is the owning account. Set from the authenticated caller at
	// creation time and immutable thereafter.
	UserID string `json:"userId" db:"user_id"`

	// Name is the display name. Defaults to "New Assistant".
	Name string `json:"name" db:"name"`

	// Description is optional free text shown in the studio.
	Description string `json:"description" db:"description"`

	// SystemPrompt is the instruction prompt sent to the AI gateway.
	SystemPrompt string `json:"systemPrompt" db:"system_prompt"`

	// Language is the BCP 47-ish language tag, e.g. "en".
	Language string `json:"language" db:"language"`

	// ConversationMode tunes the agent persona, e.g. "friendly".
	ConversationMode string `json:"conversationMode" db:"conversation_mode"`

	// Temperature is the sampling temperature for gateway calls.
	Temperature float64 `json:"temperature" db:"temperature"`

	// VoiceProvider selects the TTS vendor, e.g. "elevenlabs".
	VoiceProvider string `json:"voiceProvider" db:"voice_provider"`

	// VoiceID is the provider-specific voice identifier.
	VoiceID string `json:"voiceId" db:"voice_id"`

	// VoiceSpeed is the playback speed multiplier.
	VoiceSpeed float64 `json:"voiceSpeed" db:"voice_speed"`

	// Tools holds free-form widget/tool configuration as a JSON object.
	Tools json.RawMessage `json:"tools" db:"tools"`

	// CreatedAt is the timestamp when the assistant was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WidgetConfig is the assistant projection served to embedded widgets.
// It never includes the system prompt or the owner identity.
type WidgetConfig struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Language         string `json:"language"`
	ConversationMode string `json:"conversationMode"`
	VoiceProvider    string `json:"voiceProvider"`
	VoiceID          string `json:"voiceId"`
	FirstMessage     string `json:"firstMessage"`
}

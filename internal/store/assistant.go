package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/voxai/apiserver/types"
)

// AssistantRepository handles persistence for voice assistants. Every
// read and write is scoped by the owning user id, so a non-owner
// observes the same ErrNotFound as a missing row.
type AssistantRepository struct {
	db *sql.DB
}

func NewAssistantRepository(db *sql.DB) *AssistantRepository {
	return &AssistantRepository{db: db}
}

const assistantColumns = `id, user_id, name, description, system_prompt, language, conversation_mode,
		temperature, voice_provider, voice_id, voice_speed, tools, created_at, updated_at`

// ListByOwner returns all assistants of one user, most recently
// updated first.
func (r *AssistantRepository) ListByOwner(ctx context.Context, userID string) ([]types.Assistant, error) {
	const query = `
		SELECT ` + assistantColumns + `
		FROM assistants
		WHERE user_id = $1
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assistants := make([]types.Assistant, 0)
	for rows.Next() {
		assistant, err := scanAssistant(rows)
		if err != nil {
			return nil, err
		}
		assistants = append(assistants, assistant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assistants, nil
}

// GetForOwner fetches one assistant under the {id, owner} predicate.
func (r *AssistantRepository) GetForOwner(ctx context.Context, id, userID string) (types.Assistant, error) {
	const query = `
		SELECT ` + assistantColumns + `
		FROM assistants
		WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

// FirstByOwner returns the owner's most recently updated assistant.
// Used by the widget API, which is keyed by the owner's public key.
func (r *AssistantRepository) FirstByOwner(ctx context.Context, userID string) (types.Assistant, error) {
	const query = `
		SELECT ` + assistantColumns + `
		FROM assistants
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, userID)
}

func (r *AssistantRepository) Create(ctx context.Context, assistant types.Assistant) (types.Assistant, error) {
	now := time.Now()
	assistant.ID = uuid.NewString()
	assistant.CreatedAt = now
	assistant.UpdatedAt = now
	if len(assistant.Tools) == 0 {
		assistant.Tools = json.RawMessage(`{}`)
	}

	const query = `
		INSERT INTO assistants (` + assistantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		assistant.ID,
		assistant.UserID,
		assistant.Name,
		assistant.Description,
		assistant.SystemPrompt,
		assistant.Language,
		assistant.ConversationMode,
		assistant.Temperature,
		assistant.VoiceProvider,
		assistant.VoiceID,
		assistant.VoiceSpeed,
		[]byte(assistant.Tools),
		assistant.CreatedAt,
		assistant.UpdatedAt,
	)
	if err != nil {
		return types.Assistant{}, err
	}
	return assistant, nil
}

// Update overwrites the mutable fields of an owned assistant. The
// predicate includes the owner id; a miss on either id yields
// ErrNotFound.
func (r *AssistantRepository) Update(ctx context.Context, assistant types.Assistant) (types.Assistant, error) {
	assistant.UpdatedAt = time.Now()
	if len(assistant.Tools) == 0 {
		assistant.Tools = json.RawMessage(`{}`)
	}

	const query = `
		UPDATE assistants
		SET name = $1,
			description = $2,
			system_prompt = $3,
			language = $4,
			conversation_mode = $5,
			temperature = $6,
			voice_provider = $7,
			voice_id = $8,
			voice_speed = $9,
			tools = $10,
			updated_at = $11
		WHERE id = $12 AND user_id = $13`
	result, err := r.db.ExecContext(
		ctx,
		query,
		assistant.Name,
		assistant.Description,
		assistant.SystemPrompt,
		assistant.Language,
		assistant.ConversationMode,
		assistant.Temperature,
		assistant.VoiceProvider,
		assistant.VoiceID,
		assistant.VoiceSpeed,
		[]byte(assistant.Tools),
		assistant.UpdatedAt,
		assistant.ID,
		assistant.UserID,
	)
	if err != nil {
		return types.Assistant{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Assistant{}, err
	}
	if affected == 0 {
		return types.Assistant{}, ErrNotFound
	}
	return assistant, nil
}

func (r *AssistantRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM assistants WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AssistantRepository) getOne(ctx context.Context, query string, args ...any) (types.Assistant, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	assistant, err := scanAssistant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Assistant{}, ErrNotFound
		}
		return types.Assistant{}, err
	}
	return assistant, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssistant(row rowScanner) (types.Assistant, error) {
	var assistant types.Assistant
	var toolsJSON []byte
	err := row.Scan(
		&assistant.ID,
		&assistant.UserID,
		&assistant.Name,
		&assistant.Description,
		&assistant.SystemPrompt,
		&assistant.Language,
		&assistant.ConversationMode,
		&assistant.Temperature,
		&assistant.VoiceProvider,
		&assistant.VoiceID,
		&assistant.VoiceSpeed,
		&toolsJSON,
		&assistant.CreatedAt,
		&assistant.UpdatedAt,
	)
	if err != nil {
		return types.Assistant{}, err
	}
	assistant.Tools = json.RawMessage(toolsJSON)
	return assistant, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/voxai/apiserver/types"
)

// RecordingRepository handles persistence for recording metadata.
type RecordingRepository struct {
	db *sql.DB
}

func NewRecordingRepository(db *sql.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

const recordingColumns = `id, assistant_id, user_id, object_key, filename, content_type, size_bytes, created_at`

// ListByAssistant returns the recordings of one owned assistant,
// newest first.
func (r *RecordingRepository) ListByAssistant(ctx context.Context, assistantID, userID string) ([]types.Recording, error) {
	const query = `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE assistant_id = $1 AND user_id = $2
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, assistantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recordings := make([]types.Recording, 0)
	for rows.Next() {
		var rec types.Recording
		if err := rows.Scan(
			&rec.ID,
			&rec.AssistantID,
			&rec.UserID,
			&rec.ObjectKey,
			&rec.Filename,
			&rec.ContentType,
			&rec.SizeBytes,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recordings, nil
}

// GetForOwner fetches one recording under the {id, owner} predicate.
func (r *RecordingRepository) GetForOwner(ctx context.Context, id, userID string) (types.Recording, error) {
	const query = `
		SELECT ` + recordingColumns + `
		FROM recordings
		WHERE id = $1 AND user_id = $2`
	var rec types.Recording
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&rec.ID,
		&rec.AssistantID,
		&rec.UserID,
		&rec.ObjectKey,
		&rec.Filename,
		&rec.ContentType,
		&rec.SizeBytes,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recording{}, ErrNotFound
		}
		return types.Recording{}, err
	}
	return rec, nil
}

func (r *RecordingRepository) Create(ctx context.Context, rec types.Recording) (types.Recording, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now()

	const query = `
		INSERT INTO recordings (` + recordingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.AssistantID,
		rec.UserID,
		rec.ObjectKey,
		rec.Filename,
		rec.ContentType,
		rec.SizeBytes,
		rec.CreatedAt,
	)
	if err != nil {
		return types.Recording{}, err
	}
	return rec, nil
}

func (r *RecordingRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM recordings WHERE id = $1 AND user_id = $2`
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

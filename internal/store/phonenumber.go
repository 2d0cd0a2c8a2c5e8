package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/voxai/apiserver/types"
)

// PhoneNumberRepository handles persistence for imported phone numbers.
type PhoneNumberRepository struct {
	db *sql.DB
}

func NewPhoneNumberRepository(db *sql.DB) *PhoneNumberRepository {
	return &PhoneNumberRepository{db: db}
}

const phoneNumberColumns = `id, user_id, number, label, status, assistant_id, created_at, updated_at`

func (r *PhoneNumberRepository) ListByOwner(ctx context.Context, userID string) ([]types.PhoneNumber, error) {
	const query = `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE user_id = $1
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make([]types.PhoneNumber, 0)
	for rows.Next() {
		var number types.PhoneNumber
		if err := scanPhoneNumber(rows, &number); err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *PhoneNumberRepository) Create(ctx context.Context, number types.PhoneNumber) (types.PhoneNumber, error) {
	now := time.Now()
	number.ID = uuid.NewString()
	number.CreatedAt = now
	number.UpdatedAt = now

	const query = `
		INSERT INTO phone_numbers (` + phoneNumberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		number.ID,
		number.UserID,
		number.Number,
		number.Label,
		number.Status,
		number.AssistantID,
		number.CreatedAt,
		number.UpdatedAt,
	)
	if err != nil {
		return types.PhoneNumber{}, err
	}
	return number, nil
}

// Update rewrites the mutable fields under the {id, owner} predicate.
func (r *PhoneNumberRepository) Update(ctx context.Context, number types.PhoneNumber) (types.PhoneNumber, error) {
	number.UpdatedAt = time.Now()

	const query = `
		UPDATE phone_numbers
		SET label = $1,
			status = $2,
			assistant_id = $3,
			updated_at = $4
		WHERE id = $5 AND user_id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		number.Label,
		number.Status,
		number.AssistantID,
		number.UpdatedAt,
		number.ID,
		number.UserID,
	)
	if err != nil {
		return types.PhoneNumber{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.PhoneNumber{}, err
	}
	if affected == 0 {
		return types.PhoneNumber{}, ErrNotFound
	}
	return number, nil
}

func (r *PhoneNumberRepository) GetForOwner(ctx context.Context, id, userID string) (types.PhoneNumber, error) {
	const query = `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE id = $1 AND user_id = $2`
	var number types.PhoneNumber
	if err := scanPhoneNumber(r.db.QueryRowContext(ctx, query, id, userID), &number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PhoneNumber{}, ErrNotFound
		}
		return types.PhoneNumber{}, err
	}
	return number, nil
}

func (r *PhoneNumberRepository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM phone_numbers WHERE id = $1 AND user_id = $2`
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

func scanPhoneNumber(row rowScanner, number *types.PhoneNumber) error {
	return row.Scan(
		&number.ID,
		&number.UserID,
		&number.Number,
		&number.Label,
		&number.Status,
		&number.AssistantID,
		&number.CreatedAt,
		&number.UpdatedAt,
	)
}

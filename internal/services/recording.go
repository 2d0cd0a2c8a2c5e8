package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/voxai/apiserver/types"
)

// playbackURLTTL bounds how long a generated playback link stays valid.
const playbackURLTTL = 15 * time.Minute

// RecordingRepository defines persistence operations for recording
// metadata rows.
type RecordingRepository interface {
	ListByAssistant(ctx context.Context, assistantID, userID string) ([]types.Recording, error)
	GetForOwner(ctx context.Context, id, userID string) (types.Recording, error)
	Create(ctx context.Context, rec types.Recording) (types.Recording, error)
	Delete(ctx context.Context, id, userID string) error
}

// BlobStorage defines the object-storage operations recordings need.
type BlobStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// RecordingService stores call-recording blobs and their metadata.
type RecordingService struct {
	repo    RecordingRepository
	storage BlobStorage
}

func NewRecordingService(repo RecordingRepository, storage BlobStorage) *RecordingService {
	return &RecordingService{repo: repo, storage: storage}
}

// Enabled reports whether an object-storage backend is configured.
func (s *RecordingService) Enabled() bool {
	return s.storage != nil
}

func (s *RecordingService) ListByAssistant(ctx context.Context, assistantID, userID string) ([]types.Recording, error) {
	return s.repo.ListByAssistant(ctx, assistantID, userID)
}

// Upload writes the audio blob to object storage and records its
// metadata. The object key is namespaced by owner and assistant so a
// bucket listing stays navigable.
func (s *RecordingService) Upload(ctx context.Context, userID, assistantID, filename, contentType string, data []byte) (types.Recording, error) {
	if s.storage == nil {
		return types.Recording{}, fmt.Errorf("recording storage is not configured")
	}

	key := fmt.Sprintf("recordings/%s/%s/%s", userID, assistantID, uuid.NewString())
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Recording{}, err
	}

	rec, err := s.repo.Create(ctx, types.Recording{
		AssistantID: assistantID,
		UserID:      userID,
		ObjectKey:   key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	})
	if err != nil {
		// Roll back the orphaned blob; the metadata row is the source
		// of truth for what exists.
		_ = s.storage.Delete(ctx, key)
		return types.Recording{}, err
	}
	return rec, nil
}

// PlaybackURL returns a time-limited URL for streaming one owned
// recording directly from object storage.
func (s *RecordingService) PlaybackURL(ctx context.Context, id, userID string) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("recording storage is not configured")
	}
	rec, err := s.repo.GetForOwner(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return s.storage.PresignGet(ctx, rec.ObjectKey, playbackURLTTL)
}

// Delete removes the metadata row first, then the blob. A blob delete
// failure leaves only unreferenced garbage, never a dangling row.
func (s *RecordingService) Delete(ctx context.Context, id, userID string) error {
	rec, err := s.repo.GetForOwner(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	if s.storage != nil {
		_ = s.storage.Delete(ctx, rec.ObjectKey)
	}
	return nil
}

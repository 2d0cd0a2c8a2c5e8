package services

import (
	"context"

	"github.com/voxai/apiserver/types"
)

// defaultAssistantName is substituted when a create request carries no name.
const defaultAssistantName = "New Assistant"

// AssistantRepository defines persistence operations for assistants.
// Every operation is scoped to an owning user id.
type AssistantRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]types.Assistant, error)
	GetForOwner(ctx context.Context, id, userID string) (types.Assistant, error)
	FirstByOwner(ctx context.Context, userID string) (types.Assistant, error)
	Create(ctx context.Context, assistant types.Assistant) (types.Assistant, error)
	Update(ctx context.Context, assistant types.Assistant) (types.Assistant, error)
	Delete(ctx context.Context, id, userID string) error
}

// AssistantService encapsulates assistant use-cases.
type AssistantService struct {
	repo AssistantRepository
}

func NewAssistantService(repo AssistantRepository) *AssistantService {
	return &AssistantService{repo: repo}
}

func (s *AssistantService) ListByOwner(ctx context.Context, userID string) ([]types.Assistant, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *AssistantService) GetForOwner(ctx context.Context, id, userID string) (types.Assistant, error) {
	return s.repo.GetForOwner(ctx, id, userID)
}

func (s *AssistantService) FirstByOwner(ctx context.Context, userID string) (types.Assistant, error) {
	return s.repo.FirstByOwner(ctx, userID)
}

// Create persists a new assistant for the given owner. The owner field
// is always taken from ownerID, never from the payload, and an empty
// name falls back to the default placeholder.
func (s *AssistantService) Create(ctx context.Context, ownerID string, assistant types.Assistant) (types.Assistant, error) {
	assistant.UserID = ownerID
	if assistant.Name == "" {
		assistant.Name = defaultAssistantName
	}
	return s.repo.Create(ctx, assistant)
}

func (s *AssistantService) Update(ctx context.Context, assistant types.Assistant) (types.Assistant, error) {
	return s.repo.Update(ctx, assistant)
}

func (s *AssistantService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

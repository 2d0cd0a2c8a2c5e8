package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxai/apiserver/internal/store"
	"github.com/voxai/apiserver/types"
)

// memAssistantRepo is a minimal in-memory AssistantRepository.
type memAssistantRepo struct {
	assistants map[string]types.Assistant
	nextID     int
}

func newMemAssistantRepo() *memAssistantRepo {
	return &memAssistantRepo{assistants: make(map[string]types.Assistant)}
}

func (m *memAssistantRepo) ListByOwner(_ context.Context, userID string) ([]types.Assistant, error) {
	var owned []types.Assistant
	for _, a := range m.assistants {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	return owned, nil
}

func (m *memAssistantRepo) GetForOwner(_ context.Context, id, userID string) (types.Assistant, error) {
	a, ok := m.assistants[id]
	if !ok || a.UserID != userID {
		return types.Assistant{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memAssistantRepo) FirstByOwner(_ context.Context, userID string) (types.Assistant, error) {
	for _, a := range m.assistants {
		if a.UserID == userID {
			return a, nil
		}
	}
	return types.Assistant{}, store.ErrNotFound
}

func (m *memAssistantRepo) Create(_ context.Context, assistant types.Assistant) (types.Assistant, error) {
	m.nextID++
	assistant.ID = fmt.Sprintf("asst-%d", m.nextID)
	m.assistants[assistant.ID] = assistant
	return assistant, nil
}

func (m *memAssistantRepo) Update(_ context.Context, assistant types.Assistant) (types.Assistant, error) {
	existing, ok := m.assistants[assistant.ID]
	if !ok || existing.UserID != assistant.UserID {
		return types.Assistant{}, store.ErrNotFound
	}
	m.assistants[assistant.ID] = assistant
	return assistant, nil
}

func (m *memAssistantRepo) Delete(_ context.Context, id, userID string) error {
	a, ok := m.assistants[id]
	if !ok || a.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.assistants, id)
	return nil
}

func TestAssistantService_Create_DefaultName(t *testing.T) {
	t.Parallel()

	svc := NewAssistantService(newMemAssistantRepo())

	created, err := svc.Create(context.Background(), "owner-1", types.Assistant{})
	require.NoError(t, err)
	assert.Equal(t, "New Assistant", created.Name)
	assert.Equal(t, "owner-1", created.UserID)
}

func TestAssistantService_Create_OwnerAlwaysOverwritten(t *testing.T) {
	t.Parallel()

	svc := NewAssistantService(newMemAssistantRepo())

	created, err := svc.Create(context.Background(), "owner-1", types.Assistant{
		Name:   "Named",
		UserID: "intruder",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner-1", created.UserID)
	assert.Equal(t, "Named", created.Name)
}

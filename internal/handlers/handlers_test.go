package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/voxai/apiserver/internal/auth"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/store"
	"github.com/voxai/apiserver/types"
)

const testJWTSecret = "unit-test-secret"

// fakeUserRepo is an in-memory services.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByPublicKey(_ context.Context, publicKey string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.PublicKey == publicKey {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateKeys(_ context.Context, id, publicKey, secretKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PublicKey = publicKey
	user.SecretKey = secretKey
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) seed(user types.User) types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return user
}

// fakeAssistantRepo is an in-memory services.AssistantRepository. A
// logical clock stamps UpdatedAt so list ordering is deterministic.
type fakeAssistantRepo struct {
	mu         sync.Mutex
	assistants map[string]types.Assistant
	clock      int64
}

func newFakeAssistantRepo() *fakeAssistantRepo {
	return &fakeAssistantRepo{assistants: make(map[string]types.Assistant)}
}

func (f *fakeAssistantRepo) tick() time.Time {
	f.clock++
	return time.Unix(1700000000+f.clock, 0).UTC()
}

func (f *fakeAssistantRepo) ListByOwner(_ context.Context, userID string) ([]types.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []types.Assistant
	for _, a := range f.assistants {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})
	return owned, nil
}

func (f *fakeAssistantRepo) GetForOwner(_ context.Context, id, userID string) (types.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	if !ok || a.UserID != userID {
		return types.Assistant{}, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssistantRepo) FirstByOwner(_ context.Context, userID string) (types.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var owned []types.Assistant
	for _, a := range f.assistants {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	if len(owned) == 0 {
		return types.Assistant{}, store.ErrNotFound
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})
	return owned[0], nil
}

func (f *fakeAssistantRepo) Create(_ context.Context, assistant types.Assistant) (types.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assistant.ID = uuid.NewString()
	now := f.tick()
	assistant.CreatedAt = now
	assistant.UpdatedAt = now
	f.assistants[assistant.ID] = assistant
	return assistant, nil
}

func (f *fakeAssistantRepo) Update(_ context.Context, assistant types.Assistant) (types.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.assistants[assistant.ID]
	if !ok || existing.UserID != assistant.UserID {
		return types.Assistant{}, store.ErrNotFound
	}
	assistant.CreatedAt = existing.CreatedAt
	assistant.UpdatedAt = f.tick()
	f.assistants[assistant.ID] = assistant
	return assistant, nil
}

func (f *fakeAssistantRepo) Delete(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assistants[id]
	if !ok || a.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.assistants, id)
	return nil
}

// fakePublisher captures usage events for assertions.
type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	attrs    []map[string]string
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, append([]byte(nil), data...))
	f.attrs = append(f.attrs, attrs)
	return "msg-1", nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func issueTestToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.IssueToken(userID, userID+"@example.com", []byte(testJWTSecret))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func doJSONWithHeader(t *testing.T, handler http.Handler, method, target, headerName, headerValue string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(headerName, headerValue)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Error
}

func newAuthTestRouter(userRepo *fakeUserRepo) http.Handler {
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, services.NewUserService(userRepo), testJWTSecret)
	})
	return router
}

func newAssistantTestRouter(assistantRepo *fakeAssistantRepo) http.Handler {
	router := chi.NewRouter()
	router.Route("/assistants", func(r chi.Router) {
		AssistantRouter(r, services.NewAssistantService(assistantRepo), nil, RequireAuth(testJWTSecret))
	})
	return router
}

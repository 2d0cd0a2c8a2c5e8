package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/config"
	"github.com/voxai/apiserver/internal/gateway"
	"github.com/voxai/apiserver/internal/mq"
)

// upstreamRequest is what the fake completions endpoint saw.
type upstreamRequest struct {
	Authorization string
	Path          string
	Model         string            `json:"model"`
	Temperature   float64           `json:"temperature"`
	MaxTokens     int               `json:"max_tokens"`
	Messages      []gateway.Message `json:"messages"`
}

// newFakeUpstream runs an OpenAI-shaped completions endpoint that
// replies with the given content and records what it was sent.
func newFakeUpstream(t *testing.T, replyContent string, status int) (*httptest.Server, func() []upstreamRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []upstreamRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req upstreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("upstream decode: %v", err)
		}
		req.Authorization = r.Header.Get("Authorization")
		req.Path = r.URL.Path

		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("upstream says no"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": replyContent}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	requests := func() []upstreamRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]upstreamRequest(nil), seen...)
	}
	return srv, requests
}

func newVoiceChatTestRouter(client *gateway.Client, publisher *fakePublisher) http.Handler {
	usage := mq.NewUsageRecorder(nil)
	if publisher != nil {
		usage = mq.NewUsageRecorder(publisher)
	}
	handler := NewVoiceChatHandler(client, usage, "gpt-3.5-turbo")

	router := chi.NewRouter()
	router.Route("/voice-chat", func(r chi.Router) {
		VoiceChatRouter(r, handler, RequireAuth(testJWTSecret))
	})
	return router
}

func TestVoiceChat_EchoWhenUnconfigured(t *testing.T) {
	t.Parallel()

	client := gateway.NewClient(config.GatewayConfig{BaseURL: "https://api.openai.com", Model: "gpt-3.5-turbo"})
	router := newVoiceChatTestRouter(client, nil)
	token := issueTestToken(t, "user-a")

	rec := doJSON(t, router, http.MethodPost, "/voice-chat", token, VoiceChatRequest{UserMessage: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp VoiceChatResponse
	decodeBody(t, rec, &resp)
	want := `I heard you say: "hello". (Configure AI_GATEWAY_API_KEY in .env for real AI responses)`
	if resp.Reply != want {
		t.Fatalf("reply %q, want %q", resp.Reply, want)
	}
}

func TestVoiceChat_MissingUserMessage(t *testing.T) {
	t.Parallel()

	client := gateway.NewClient(config.GatewayConfig{BaseURL: "https://api.openai.com"})
	router := newVoiceChatTestRouter(client, nil)
	token := issueTestToken(t, "user-a")

	rec := doJSON(t, router, http.MethodPost, "/voice-chat", token, VoiceChatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "userMessage is required" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestVoiceChat_RequiresAuth(t *testing.T) {
	t.Parallel()

	client := gateway.NewClient(config.GatewayConfig{BaseURL: "https://api.openai.com"})
	router := newVoiceChatTestRouter(client, nil)

	rec := doJSON(t, router, http.MethodPost, "/voice-chat", "", VoiceChatRequest{UserMessage: "hello"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestVoiceChat_ProxiesToGateway(t *testing.T) {
	t.Parallel()

	upstream, requests := newFakeUpstream(t, "Hi there!", http.StatusOK)
	client := gateway.NewClient(config.GatewayConfig{
		BaseURL: upstream.URL,
		APIKey:  "sk-test",
		Model:   "gpt-3.5-turbo",
	})
	publisher := &fakePublisher{}
	router := newVoiceChatTestRouter(client, publisher)
	token := issueTestToken(t, "user-a")

	temperature := 0.2
	rec := doJSON(t, router, http.MethodPost, "/voice-chat", token, VoiceChatRequest{
		UserMessage:  "What time is it?",
		SystemPrompt: "You are a clock.",
		Temperature:  &temperature,
		ConversationHistory: []gateway.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp VoiceChatResponse
	decodeBody(t, rec, &resp)
	if resp.Reply != "Hi there!" {
		t.Fatalf("reply %q", resp.Reply)
	}

	seen := requests()
	if len(seen) != 1 {
		t.Fatalf("upstream saw %d requests, want 1", len(seen))
	}
	req := seen[0]
	if req.Path != "/v1/chat/completions" {
		t.Fatalf("upstream path %q", req.Path)
	}
	if req.Authorization != "Bearer sk-test" {
		t.Fatalf("upstream auth %q", req.Authorization)
	}
	if req.Model != "gpt-3.5-turbo" || req.Temperature != 0.2 {
		t.Fatalf("unexpected upstream payload: %+v", req)
	}
	// system prompt, two history turns, then the new user message.
	if len(req.Messages) != 4 {
		t.Fatalf("transcript length %d, want 4", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "You are a clock." {
		t.Fatalf("transcript head: %+v", req.Messages[0])
	}
	if last := req.Messages[3]; last.Role != "user" || last.Content != "What time is it?" {
		t.Fatalf("transcript tail: %+v", last)
	}

	// One usage event, attributed to the caller.
	if publisher.count() != 1 {
		t.Fatalf("published %d usage events, want 1", publisher.count())
	}
	var event mq.UsageEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("decode usage event: %v", err)
	}
	if event.UserID != "user-a" || event.Source != "playground" || event.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected usage event: %+v", event)
	}
}

func TestVoiceChat_GatewayFailurePassesThrough(t *testing.T) {
	t.Parallel()

	upstream, _ := newFakeUpstream(t, "", http.StatusInternalServerError)
	client := gateway.NewClient(config.GatewayConfig{BaseURL: upstream.URL, APIKey: "sk-test", Model: "gpt-3.5-turbo"})
	router := newVoiceChatTestRouter(client, nil)
	token := issueTestToken(t, "user-a")

	rec := doJSON(t, router, http.MethodPost, "/voice-chat", token, VoiceChatRequest{UserMessage: "hello"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	if got := errorMessage(t, rec); got != "AI gateway error: 500 - upstream says no" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

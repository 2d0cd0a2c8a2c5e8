package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/internal/gateway"
	"github.com/voxai/apiserver/internal/mq"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/store"
	"github.com/voxai/apiserver/types"
)

const (
	msgMissingAPIKey = "Missing apiKey"
	msgInvalidAPIKey = "Invalid API key"
	msgRateLimited   = "Rate limited, try again later"

	// apiKeyHeader is the widget's alternative to the apiKey query param.
	apiKeyHeader = "X-VoxAI-API-Key"

	widgetSystemPrompt  = "You are a helpful voice assistant."
	widgetFallbackReply = "Sorry, I couldn't process that."
	widgetFirstMessage  = "Hi! How can I help you today?"
)

// PublicHandler serves the embedded widget API, authenticated by the
// assistant owner's publishable key instead of a session token.
type PublicHandler struct {
	userService      *services.UserService
	assistantService *services.AssistantService
	gateway          *gateway.Client
	usage            *mq.UsageRecorder
	model            string
}

// NewPublicHandler constructs a handler with the provided dependencies.
func NewPublicHandler(
	userService *services.UserService,
	assistantService *services.AssistantService,
	client *gateway.Client,
	usage *mq.UsageRecorder,
	model string,
) *PublicHandler {
	return &PublicHandler{
		userService:      userService,
		assistantService: assistantService,
		gateway:          client,
		usage:            usage,
		model:            model,
	}
}

// PublicRouter registers the widget routes on the given router. No
// session auth: the publishable key is the credential.
func PublicRouter(r chi.Router, handler *PublicHandler) {
	r.Get("/assistant", handler.WidgetConfig)
	r.Post("/assistant", handler.WidgetChat)
}

// WidgetChatRequest is one widget chat turn.
type WidgetChatRequest struct {
	UserMessage         string            `json:"userMessage"`
	ConversationHistory []gateway.Message `json:"conversationHistory"`
}

// WidgetChatResponse carries the reply plus the answering assistant.
type WidgetChatResponse struct {
	Reply         string `json:"reply"`
	AssistantID   string `json:"assistantId"`
	AssistantName string `json:"assistantName"`
}

// WidgetConfig returns the public configuration of the key owner's
// assistant.
func (h *PublicHandler) WidgetConfig(w http.ResponseWriter, r *http.Request) {
	assistant, ok := h.resolveAssistant(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, types.WidgetConfig{
		ID:               assistant.ID,
		Name:             assistant.Name,
		Language:         assistant.Language,
		ConversationMode: assistant.ConversationMode,
		VoiceProvider:    assistant.VoiceProvider,
		VoiceID:          assistant.VoiceID,
		FirstMessage:     firstMessage(assistant.Tools),
	})
}

// WidgetChat runs one chat turn with the key owner's assistant, using
// its stored prompt and temperature.
func (h *PublicHandler) WidgetChat(w http.ResponseWriter, r *http.Request) {
	assistant, ok := h.resolveAssistant(w, r)
	if !ok {
		return
	}

	var req WidgetChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgUserMessageRequired)
		return
	}
	if req.UserMessage == "" {
		writeError(w, http.StatusBadRequest, msgUserMessageRequired)
		return
	}

	if !h.gateway.Configured() {
		writeError(w, http.StatusInternalServerError, "AI gateway is not configured")
		return
	}

	systemPrompt := assistant.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = widgetSystemPrompt
	}
	messages := gateway.BuildTranscript(systemPrompt, req.ConversationHistory, req.UserMessage)

	start := time.Now()
	reply, err := h.gateway.Chat(r.Context(), messages, assistant.Temperature)
	if err != nil {
		if errors.Is(err, gateway.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, msgRateLimited)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reply == "" {
		reply = widgetFallbackReply
	}

	h.usage.Record(r.Context(), mq.UsageEvent{
		UserID:      assistant.UserID,
		AssistantID: assistant.ID,
		Source:      "widget",
		Model:       h.model,
		LatencyMS:   time.Since(start).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, WidgetChatResponse{
		Reply:         reply,
		AssistantID:   assistant.ID,
		AssistantName: assistant.Name,
	})
}

// resolveAssistant authenticates the publishable key and loads the
// owner's current assistant. Key misses and owners without assistants
// both answer 404 so the key space cannot be probed.
func (h *PublicHandler) resolveAssistant(w http.ResponseWriter, r *http.Request) (types.Assistant, bool) {
	apiKey := r.URL.Query().Get("apiKey")
	if apiKey == "" {
		apiKey = r.Header.Get(apiKeyHeader)
	}
	if apiKey == "" {
		writeError(w, http.StatusUnauthorized, msgMissingAPIKey)
		return types.Assistant{}, false
	}

	user, err := h.userService.GetByPublicKey(r.Context(), apiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgInvalidAPIKey)
			return types.Assistant{}, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return types.Assistant{}, false
	}

	assistant, err := h.assistantService.FirstByOwner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgInvalidAPIKey)
			return types.Assistant{}, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return types.Assistant{}, false
	}

	return assistant, true
}

func firstMessage(tools json.RawMessage) string {
	var parsed struct {
		FirstMessage string `json:"firstMessage"`
	}
	if len(tools) > 0 {
		_ = json.Unmarshal(tools, &parsed)
	}
	if parsed.FirstMessage == "" {
		return widgetFirstMessage
	}
	return parsed.FirstMessage
}

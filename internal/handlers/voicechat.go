package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/internal/gateway"
	"github.com/voxai/apiserver/internal/mq"
)

const msgUserMessageRequired = "userMessage is required"

// echoReplyFormat answers playground chats when no gateway key is
// configured, so the studio stays usable in local development.
const echoReplyFormat = `I heard you say: %q. (Configure AI_GATEWAY_API_KEY in .env for real AI responses)`

// VoiceChatHandler proxies playground conversations to the AI gateway.
type VoiceChatHandler struct {
	gateway *gateway.Client
	usage   *mq.UsageRecorder
	model   string
}

// NewVoiceChatHandler constructs a handler with the provided dependencies.
func NewVoiceChatHandler(client *gateway.Client, usage *mq.UsageRecorder, model string) *VoiceChatHandler {
	return &VoiceChatHandler{gateway: client, usage: usage, model: model}
}

// VoiceChatRouter registers the voice-chat route on the given router.
func VoiceChatRouter(r chi.Router, handler *VoiceChatHandler, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/", handler.Chat)
}

// VoiceChatRequest is one playground chat turn.
type VoiceChatRequest struct {
	UserMessage         string            `json:"userMessage"`
	SystemPrompt        string            `json:"systemPrompt"`
	Temperature         *float64          `json:"temperature"`
	ConversationHistory []gateway.Message `json:"conversationHistory"`
}

// VoiceChatResponse carries the assistant's reply.
type VoiceChatResponse struct {
	Reply string `json:"reply"`
}

// Chat forwards one turn to the gateway and returns the reply.
func (h *VoiceChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req VoiceChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgUserMessageRequired)
		return
	}
	if req.UserMessage == "" {
		writeError(w, http.StatusBadRequest, msgUserMessageRequired)
		return
	}

	if !h.gateway.Configured() {
		writeJSON(w, http.StatusOK, VoiceChatResponse{
			Reply: fmt.Sprintf(echoReplyFormat, req.UserMessage),
		})
		return
	}

	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	messages := gateway.BuildTranscript(req.SystemPrompt, req.ConversationHistory, req.UserMessage)

	start := time.Now()
	reply, err := h.gateway.Chat(r.Context(), messages, temperature)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.usage.Record(r.Context(), mq.UsageEvent{
		UserID:    userID,
		Source:    "playground",
		Model:     h.model,
		LatencyMS: time.Since(start).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, VoiceChatResponse{Reply: reply})
}

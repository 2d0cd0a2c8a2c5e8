package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/store"
	"github.com/voxai/apiserver/types"
)

const msgAssistantNotFound = "Assistant not found"

// Defaults applied when a create request omits a field.
const (
	defaultLanguage    = "en"
	defaultTemperature = 0.7
	defaultVoiceSpeed  = 1.0
)

// AssistantHandler provides ownership-scoped CRUD for assistants.
type AssistantHandler struct {
	assistantService *services.AssistantService
}

// NewAssistantHandler constructs a handler with the provided service.
func NewAssistantHandler(assistantService *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// AssistantRouter registers assistant routes on the given router. All
// routes require authentication; recording routes are nested per
// assistant when a recording handler is provided.
func AssistantRouter(
	r chi.Router,
	assistantService *services.AssistantService,
	recordingHandler *RecordingHandler,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAssistantHandler(assistantService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListAssistants)
	r.Post("/", handler.CreateAssistant)
	r.Route("/{assistantID}", func(r chi.Router) {
		r.Put("/", handler.UpdateAssistant)
		r.Delete("/", handler.DeleteAssistant)
		if recordingHandler != nil {
			r.Route("/recordings", func(r chi.Router) {
				r.Get("/", recordingHandler.ListRecordings)
				r.Post("/", recordingHandler.UploadRecording)
			})
		}
	})
}

// AssistantUpsertRequest is the JSON payload of create and update.
// Pointer fields distinguish "absent" from zero values so updates can
// merge over the stored row.
type AssistantUpsertRequest struct {
	Name             *string         `json:"name"`
	Description      *string         `json:"description"`
	SystemPrompt     *string         `json:"systemPrompt"`
	Language         *string         `json:"language"`
	ConversationMode *string         `json:"conversationMode"`
	Temperature      *float64        `json:"temperature"`
	VoiceProvider    *string         `json:"voiceProvider"`
	VoiceID          *string         `json:"voiceId"`
	VoiceSpeed       *float64        `json:"voiceSpeed"`
	Tools            json.RawMessage `json:"tools"`
}

func (h *AssistantHandler) ListAssistants(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	assistants, err := h.assistantService.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, assistants)
}

func (h *AssistantHandler) CreateAssistant(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req AssistantUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Schema defaults for anything the caller left out. The owner is
	// always the authenticated caller, regardless of the payload.
	assistant := types.Assistant{
		Language:    defaultLanguage,
		Temperature: defaultTemperature,
		VoiceSpeed:  defaultVoiceSpeed,
	}
	applyAssistantPatch(&assistant, req)

	created, err := h.assistantService.Create(r.Context(), userID, assistant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *AssistantHandler) UpdateAssistant(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req AssistantUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assistantID := chi.URLParam(r, "assistantID")
	assistant, err := h.assistantService.GetForOwner(r.Context(), assistantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgAssistantNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	applyAssistantPatch(&assistant, req)

	updated, err := h.assistantService.Update(r.Context(), assistant)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgAssistantNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *AssistantHandler) DeleteAssistant(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	assistantID := chi.URLParam(r, "assistantID")
	if err := h.assistantService.Delete(r.Context(), assistantID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgAssistantNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

func applyAssistantPatch(assistant *types.Assistant, req AssistantUpsertRequest) {
	if req.Name != nil {
		assistant.Name = *req.Name
	}
	if req.Description != nil {
		assistant.Description = *req.Description
	}
	if req.SystemPrompt != nil {
		assistant.SystemPrompt = *req.SystemPrompt
	}
	if req.Language != nil {
		assistant.Language = *req.Language
	}
	if req.ConversationMode != nil {
		assistant.ConversationMode = *req.ConversationMode
	}
	if req.Temperature != nil {
		assistant.Temperature = *req.Temperature
	}
	if req.VoiceProvider != nil {
		assistant.VoiceProvider = *req.VoiceProvider
	}
	if req.VoiceID != nil {
		assistant.VoiceID = *req.VoiceID
	}
	if req.VoiceSpeed != nil {
		assistant.VoiceSpeed = *req.VoiceSpeed
	}
	if len(req.Tools) > 0 {
		assistant.Tools = req.Tools
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/store"
)

const msgRecordingNotFound = "Recording not found"

const (
	maxRecordingMemory = 32 << 20
	maxRecordingBytes  = 64 << 20
	formFieldAudio     = "audio"
)

// RecordingHandler provides upload, listing, playback, and deletion of
// test-call recordings.
type RecordingHandler struct {
	recordingService *services.RecordingService
	assistantService *services.AssistantService
}

// NewRecordingHandler constructs a handler with the provided services.
func NewRecordingHandler(recordingService *services.RecordingService, assistantService *services.AssistantService) *RecordingHandler {
	return &RecordingHandler{
		recordingService: recordingService,
		assistantService: assistantService,
	}
}

// RecordingRouter registers the recording-id routes on the given
// router. Per-assistant routes are registered by AssistantRouter.
func RecordingRouter(r chi.Router, handler *RecordingHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Get("/{recordingID}/url", handler.PlaybackURL)
	r.Delete("/{recordingID}", handler.DeleteRecording)
}

// ListRecordings lists the recordings of one owned assistant.
func (h *RecordingHandler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	assistantID := chi.URLParam(r, "assistantID")
	if _, err := h.assistantService.GetForOwner(r.Context(), assistantID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgAssistantNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recordings, err := h.recordingService.ListByAssistant(r.Context(), assistantID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, recordings)
}

// UploadRecording stores a multipart audio clip for an owned assistant.
func (h *RecordingHandler) UploadRecording(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	assistantID := chi.URLParam(r, "assistantID")
	if _, err := h.assistantService.GetForOwner(r.Context(), assistantID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgAssistantNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxRecordingMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldAudio]
	if len(files) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one audio file is required")
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	data, err := readLimited(file, maxRecordingBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rec, err := h.recordingService.Upload(r.Context(), userID, assistantID, fileHeader.Filename, contentType, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// PlaybackURL returns a time-limited streaming URL for one owned
// recording.
func (h *RecordingHandler) PlaybackURL(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	recordingID := chi.URLParam(r, "recordingID")
	url, err := h.recordingService.PlaybackURL(r.Context(), recordingID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgRecordingNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// DeleteRecording removes one owned recording and its stored blob.
func (h *RecordingHandler) DeleteRecording(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	recordingID := chi.URLParam(r, "recordingID")
	if err := h.recordingService.Delete(r.Context(), recordingID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgRecordingNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

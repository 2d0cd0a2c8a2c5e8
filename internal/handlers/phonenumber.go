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

const (
	msgPhoneNumberNotFound = "Phone number not found"
	msgPhoneNumberRequired = "Phone number is required"
)

// PhoneNumberHandler provides ownership-scoped CRUD for imported
// phone numbers.
type PhoneNumberHandler struct {
	phoneNumberService *services.PhoneNumberService
}

// NewPhoneNumberHandler constructs a handler with the provided service.
func NewPhoneNumberHandler(phoneNumberService *services.PhoneNumberService) *PhoneNumberHandler {
	return &PhoneNumberHandler{phoneNumberService: phoneNumberService}
}

// PhoneNumberRouter registers phone-number routes on the given router.
func PhoneNumberRouter(r chi.Router, phoneNumberService *services.PhoneNumberService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewPhoneNumberHandler(phoneNumberService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListPhoneNumbers)
	r.Post("/", handler.ImportPhoneNumber)
	r.Put("/{phoneNumberID}", handler.UpdatePhoneNumber)
	r.Delete("/{phoneNumberID}", handler.DeletePhoneNumber)
}

// PhoneNumberRequest is the JSON payload of import and update.
type PhoneNumberRequest struct {
	Number      string  `json:"number"`
	Label       *string `json:"label"`
	Status      *string `json:"status"`
	AssistantID *string `json:"assistantId"`
}

func (h *PhoneNumberHandler) ListPhoneNumbers(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	numbers, err := h.phoneNumberService.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, numbers)
}

func (h *PhoneNumberHandler) ImportPhoneNumber(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req PhoneNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgPhoneNumberRequired)
		return
	}
	if req.Number == "" {
		writeError(w, http.StatusBadRequest, msgPhoneNumberRequired)
		return
	}

	number := types.PhoneNumber{Number: req.Number}
	applyPhoneNumberPatch(&number, req)

	created, err := h.phoneNumberService.Import(r.Context(), userID, number)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PhoneNumberHandler) UpdatePhoneNumber(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req PhoneNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	phoneNumberID := chi.URLParam(r, "phoneNumberID")
	number, err := h.phoneNumberService.GetForOwner(r.Context(), phoneNumberID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPhoneNumberNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	applyPhoneNumberPatch(&number, req)

	updated, err := h.phoneNumberService.Update(r.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPhoneNumberNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PhoneNumberHandler) DeletePhoneNumber(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	phoneNumberID := chi.URLParam(r, "phoneNumberID")
	if err := h.phoneNumberService.Delete(r.Context(), phoneNumberID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgPhoneNumberNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

func applyPhoneNumberPatch(number *types.PhoneNumber, req PhoneNumberRequest) {
	if req.Label != nil {
		number.Label = *req.Label
	}
	if req.Status != nil {
		number.Status = *req.Status
	}
	if req.AssistantID != nil {
		number.AssistantID = *req.AssistantID
	}
}

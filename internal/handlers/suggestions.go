package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/request"
	"github.com/taskflow/taskflow-api/internal/services/suggest"
)

// SuggestionHandler handles category suggestion requests
type SuggestionHandler struct {
	coordinator *suggest.Coordinator
	store       cache.SuggestionStore
	logger      *zap.Logger
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(coordinator *suggest.Coordinator, store cache.SuggestionStore, logger *zap.Logger) *SuggestionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionHandler{coordinator: coordinator, store: store, logger: logger}
}

// RegisterRoutes registers suggestion routes on the given router
// The router should already have the /suggestions prefix
func (h *SuggestionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/draft", h.ObserveDraft).Methods("POST")
	r.HandleFunc("", h.GetSuggestion).Methods("GET")
	r.HandleFunc("", h.ConsumeSuggestion).Methods("DELETE")
}

// DraftRequest carries the current draft description
type DraftRequest struct {
	Description string `json:"description"`
}

// DraftResponse reports whether a suggestion request was scheduled
type DraftResponse struct {
	Scheduled bool `json:"scheduled"`
}

// SuggestionResponse wraps the pending suggestion, if any
type SuggestionResponse struct {
	Suggestion any `json:"suggestion"`
}

// ObserveDraft registers a draft edit. Edits within the quiet period
// collapse into a single suggestion request carrying the final draft; a
// draft that is too short cancels any pending request and clears the
// displayed suggestion.
func (h *SuggestionHandler) ObserveDraft(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	scheduled := h.coordinator.Observe(user.ID, req.Description)
	respondJSON(w, http.StatusAccepted, DraftResponse{Scheduled: scheduled})
}

// GetSuggestion returns the current pending suggestion for the user, or
// null when none is available.
func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	suggestion, err := h.store.Get(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve suggestion")
		return
	}

	if suggestion == nil {
		respondJSON(w, http.StatusOK, SuggestionResponse{Suggestion: nil})
		return
	}
	respondJSON(w, http.StatusOK, SuggestionResponse{Suggestion: suggestion})
}

// ConsumeSuggestion removes the user's pending suggestion, typically after
// the frontend applied it to the form.
func (h *SuggestionHandler) ConsumeSuggestion(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if err := h.store.Consume(r.Context(), user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to consume suggestion")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

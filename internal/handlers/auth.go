package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskflow/taskflow-api/internal/request"
	"github.com/taskflow/taskflow-api/internal/services/oidc"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	oidcClient *oidc.Client
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oidcClient *oidc.Client) *AuthHandler {
	return &AuthHandler{oidcClient: oidcClient}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.oidcClient.GetLoginConfig(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Failed to get OIDC configuration", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, loginConfig)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

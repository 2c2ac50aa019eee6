package middleware

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/models"
	"github.com/taskflow/taskflow-api/internal/request"
	"github.com/taskflow/taskflow-api/internal/services/oidc"
)

// Auth creates authentication middleware that validates bearer tokens and
// resolves the calling user. Users are provisioned on first sight of a
// verified token.
func Auth(userRepo database.UserRepositoryInterface, verifier *oidc.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header", logger)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format", logger)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Info("token_verification_failed", zap.Error(err))
				respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token", logger)
				return
			}

			user, err := userRepo.GetByProviderID(ctx, claims.Sub)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					user = &models.User{
						ID:            uuid.New(),
						Email:         claims.Email,
						ProviderID:    &claims.Sub,
						Name:          &claims.Name,
						EmailVerified: true,
					}
					if err := userRepo.Create(ctx, user); err != nil {
						logger.Error("user_create_failed", zap.Error(err))
						respondAuthError(w, http.StatusInternalServerError, "Failed to create user", logger)
						return
					}
				} else {
					logger.Error("user_lookup_failed", zap.Error(err))
					respondAuthError(w, http.StatusInternalServerError, "Database error", logger)
					return
				}
			} else {
				// Keep the local record in sync with the token claims.
				updateNeeded := false
				if user.Email != claims.Email {
					user.Email = claims.Email
					updateNeeded = true
				}
				if (user.Name == nil && claims.Name != "") || (user.Name != nil && *user.Name != claims.Name) {
					name := claims.Name
					user.Name = &name
					updateNeeded = true
				}
				if updateNeeded {
					if err := userRepo.Update(ctx, user); err != nil {
						logger.Warn("user_update_failed", zap.Error(err))
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondAuthError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed_to_encode_error_response", zap.Error(err))
	}
}

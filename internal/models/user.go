package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account. Its ID is the owner id that scopes every
// todo and suggestion slot; all store and cache operations carry it
// explicitly. Users are provisioned on first sight of a verified token
// (get-or-create keyed by ProviderID), so there is no registration flow.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	ProviderID    *string   `json:"provider_id,omitempty"`
	Name          *string   `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

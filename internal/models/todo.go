package models

import (
	"time"

	"github.com/google/uuid"
)

// Todo represents a single owned task record
type Todo struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// CategorySuggestion is an advisory (category, reasoning) pair computed from
// a description. It has no identity and is never authoritative.
type CategorySuggestion struct {
	Category  Category `json:"category"`
	Reasoning string   `json:"reasoning"`
}

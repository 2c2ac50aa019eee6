package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/models"
)

// TodoRepositoryInterface defines the interface for todo repository operations.
// This interface enables better testability by allowing mock implementations.
type TodoRepositoryInterface interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Todo, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error)
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Ensure concrete types implement the interfaces
var (
	_ TodoRepositoryInterface = (*TodoRepository)(nil)
	_ UserRepositoryInterface = (*UserRepository)(nil)
)

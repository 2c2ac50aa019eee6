// Package store implements the todo store adapter: owner-scoped persistence
// with validation at the boundary and a read-your-writes listing cache.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/models"
	"github.com/taskflow/taskflow-api/internal/validation"
	"go.uber.org/zap"
)

// ValidationError reports a field that failed validation before any store
// call was attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TodoPatch describes a partial update. Nil fields retain their prior
// values; ClearDueDate removes the due date.
type TodoPatch struct {
	Description  *string
	Category     *models.Category
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
}

// TodoStoreInterface defines the operations of the todo store adapter.
// Every operation takes the owner id explicitly.
type TodoStoreInterface interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Todo, error)
	Create(ctx context.Context, ownerID uuid.UUID, description string, category models.Category, dueDate *time.Time) (*models.Todo, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch TodoPatch) (*models.Todo, error)
	ToggleComplete(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Todo, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// TodoStore composes the todo repository with the per-owner listing cache.
type TodoStore struct {
	repo   database.TodoRepositoryInterface
	cache  cache.ListCache
	logger *zap.Logger
}

var _ TodoStoreInterface = (*TodoStore)(nil)

// NewTodoStore creates a new todo store. The listing cache is optional; a
// nil cache disables caching but not correctness.
func NewTodoStore(repo database.TodoRepositoryInterface, listCache cache.ListCache, logger *zap.Logger) *TodoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoStore{repo: repo, cache: listCache, logger: logger}
}

// List returns the owner's todos, newest first. Serves from the cache when
// warm; cache failures degrade to the repository.
func (s *TodoStore) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ownerID)
		if err != nil {
			s.logger.Warn("listing_cache_read_failed",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ownerID, todos); err != nil {
			s.logger.Warn("listing_cache_write_failed",
				zap.String("owner_id", ownerID.String()),
				zap.Error(err),
			)
		}
	}

	return todos, nil
}

// Create validates and persists a new todo. The id is assigned here, the
// creation timestamp server-side; completed always starts false.
func (s *TodoStore) Create(ctx context.Context, ownerID uuid.UUID, description string, category models.Category, dueDate *time.Time) (*models.Todo, error) {
	description = validation.SanitizeDescription(description)
	if err := validation.ValidateDescription(description); err != nil {
		return nil, &ValidationError{Field: "description", Message: err.Error()}
	}
	if !category.IsValid() {
		return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("invalid category: %s", category)}
	}

	todo := &models.Todo{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Description: description,
		Category:    category,
		Completed:   false,
		DueDate:     normalizeDueDate(dueDate),
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx, ownerID)
	return todo, nil
}

// Update applies a partial update. Omitted fields keep their prior values.
// The post-update record is re-read from the repository so the caller sees
// exactly what was persisted.
func (s *TodoStore) Update(ctx context.Context, ownerID, id uuid.UUID, patch TodoPatch) (*models.Todo, error) {
	todo, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		description := validation.SanitizeDescription(*patch.Description)
		if err := validation.ValidateDescription(description); err != nil {
			return nil, &ValidationError{Field: "description", Message: err.Error()}
		}
		todo.Description = description
	}
	if patch.Category != nil {
		if !patch.Category.IsValid() {
			return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("invalid category: %s", *patch.Category)}
		}
		todo.Category = *patch.Category
	}
	if patch.ClearDueDate {
		todo.DueDate = nil
	} else if patch.DueDate != nil {
		todo.DueDate = normalizeDueDate(patch.DueDate)
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}

	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx, ownerID)

	return s.repo.GetByID(ctx, ownerID, id)
}

// ToggleComplete is a restricted update touching only the completed flag.
func (s *TodoStore) ToggleComplete(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Todo, error) {
	return s.Update(ctx, ownerID, id, TodoPatch{Completed: &completed})
}

// Delete permanently removes a todo. Deleting an absent id fails with
// database.ErrNotFound.
func (s *TodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.invalidateListing(ctx, ownerID)
	return nil
}

// Get returns a single todo scoped to its owner.
func (s *TodoStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Todo, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// invalidateListing drops the owner's cached listing after a mutation so the
// next list reflects the write. Cache failures are logged, never surfaced:
// the mutation already succeeded.
func (s *TodoStore) invalidateListing(ctx context.Context, ownerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("listing_cache_invalidation_failed",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
	}
}

// normalizeDueDate truncates a due date to its calendar day in UTC. Due
// dates carry no time-of-day semantics.
func normalizeDueDate(dueDate *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	day := dueDate.UTC().Truncate(24 * time.Hour)
	return &day
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/models"
)

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("todo not found")

// TodoRepository handles todo database operations. Every query is scoped by
// the owner id supplied by the caller; ownership is never inferred here.
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create creates a new todo. The creation timestamp is assigned server-side
// and written back to the record, along with completed=false.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (id, owner_id, description, category, completed, created_at, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	var dueDate sql.NullTime
	if todo.DueDate != nil {
		dueDate = sql.NullTime{Time: *todo.DueDate, Valid: true}
	}

	todo.Completed = false
	err := r.db.QueryRowContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Description,
		todo.Category,
		todo.Completed,
		time.Now().UTC(),
		dueDate,
	).Scan(&todo.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetByID retrieves a todo by id for the given owner
func (r *TodoRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Todo, error) {
	todo := &models.Todo{}
	var dueDate sql.NullTime

	query := `
		SELECT id, owner_id, description, category, completed, created_at, due_date
		FROM todos
		WHERE id = $1 AND owner_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Description,
		&todo.Category,
		&todo.Completed,
		&todo.CreatedAt,
		&dueDate,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	if dueDate.Valid {
		todo.DueDate = &dueDate.Time
	}

	return todo, nil
}

// ListByOwner retrieves all todos for an owner, newest first. An owner with
// no todos yields an empty slice, not an error.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
	query := `
		SELECT id, owner_id, description, category, completed, created_at, due_date
		FROM todos
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		todo := &models.Todo{}
		var dueDate sql.NullTime

		err := rows.Scan(
			&todo.ID,
			&todo.OwnerID,
			&todo.Description,
			&todo.Category,
			&todo.Completed,
			&todo.CreatedAt,
			&dueDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}

		if dueDate.Valid {
			todo.DueDate = &dueDate.Time
		}

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// Update writes the mutable fields of an existing todo. created_at is never
// rewritten. Returns ErrNotFound when the id does not belong to the owner.
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	query := `
		UPDATE todos
		SET description = $3, category = $4, completed = $5, due_date = $6
		WHERE id = $1 AND owner_id = $2
	`

	var dueDate sql.NullTime
	if todo.DueDate != nil {
		dueDate = sql.NullTime{Time: *todo.DueDate, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Description,
		todo.Category,
		todo.Completed,
		dueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete permanently removes a todo. Not idempotent: deleting an absent id
// returns ErrNotFound.
func (r *TodoRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM todos WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

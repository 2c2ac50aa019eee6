package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/models"
	"github.com/taskflow/taskflow-api/internal/request"
	"github.com/taskflow/taskflow-api/internal/store"
	"github.com/taskflow/taskflow-api/internal/validation"
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	todos       store.TodoStoreInterface
	suggestions cache.SuggestionStore
	logger      *zap.Logger
}

// NewTodoHandler creates a new todo handler. The suggestion store is
// optional; when present, a successful create or update consumes the
// owner's pending suggestion.
func NewTodoHandler(todos store.TodoStoreInterface, suggestions cache.SuggestionStore, logger *zap.Logger) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{todos: todos, suggestions: suggestions, logger: logger}
}

// RegisterRoutes registers todo routes on the given router
// The router should already have the /todos prefix (e.g., from apiRouter.PathPrefix("/todos"))
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/{id}", h.GetTodo).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTodo).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTodo).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTodo).Methods("POST")
}

// CreateTodoRequest represents a create todo request
type CreateTodoRequest struct {
	Description string  `json:"description" validate:"required,min=1,max=200"`
	Category    string  `json:"category" validate:"required,category"`
	DueDate     *string `json:"due_date,omitempty"`
}

// UpdateTodoRequest represents an update todo request. Omitted fields are
// left unchanged; an empty due_date string clears the due date.
type UpdateTodoRequest struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// CompleteTodoRequest represents a completion toggle request
type CompleteTodoRequest struct {
	Completed bool `json:"completed"`
}

// ListTodos lists the authenticated user's todos, newest first
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	todos, err := h.todos.List(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve todos")
		return
	}

	respondJSON(w, http.StatusOK, todos)
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	category, _ := models.ParseCategory(req.Category)

	dueDate, err := parseDueDateField(req.DueDate)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	todo, err := h.todos.Create(ctx, user.ID, req.Description, category, dueDate)
	if err != nil {
		h.respondStoreError(w, err, "Failed to create todo")
		return
	}

	h.consumeSuggestion(r, user.ID)
	respondJSON(w, http.StatusCreated, todo)
}

// GetTodo retrieves a todo by ID
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid todo ID")
		return
	}

	todo, err := h.todos.Get(r.Context(), user.ID, id)
	if err != nil {
		h.respondStoreError(w, err, "Failed to retrieve todo")
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// UpdateTodo applies a partial update to an existing todo
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid todo ID")
		return
	}

	var req UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	patch := store.TodoPatch{
		Description: req.Description,
		Completed:   req.Completed,
	}

	if req.Category != nil {
		category, ok := models.ParseCategory(*req.Category)
		if !ok {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Invalid category: %s", *req.Category))
			return
		}
		patch.Category = &category
	}

	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			dueDate, err := parseDueDateField(req.DueDate)
			if err != nil {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
				return
			}
			patch.DueDate = dueDate
		}
	}

	todo, err := h.todos.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		h.respondStoreError(w, err, "Failed to update todo")
		return
	}

	h.consumeSuggestion(r, user.ID)
	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo permanently deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid todo ID")
		return
	}

	if err := h.todos.Delete(r.Context(), user.ID, id); err != nil {
		h.respondStoreError(w, err, "Failed to delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTodo toggles a todo's completed flag
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid todo ID")
		return
	}

	var req CompleteTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	todo, err := h.todos.ToggleComplete(r.Context(), user.ID, id, req.Completed)
	if err != nil {
		h.respondStoreError(w, err, "Failed to update todo")
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// respondStoreError maps store errors to HTTP responses
func (h *TodoHandler) respondStoreError(w http.ResponseWriter, err error, fallback string) {
	var vErr *store.ValidationError
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Todo not found")
	case errors.As(err, &vErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", vErr.Message)
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", fallback)
	}
}

// consumeSuggestion drops the owner's pending suggestion after a write
// that consumed or invalidated it. Failures are logged only.
func (h *TodoHandler) consumeSuggestion(r *http.Request, ownerID uuid.UUID) {
	if h.suggestions == nil {
		return
	}
	if err := h.suggestions.Consume(r.Context(), ownerID); err != nil {
		h.logger.Warn("suggestion_consume_failed",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err),
		)
	}
}

// parseDueDateField parses an optional due date in YYYY-MM-DD form
func parseDueDateField(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := validation.ParseDueDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

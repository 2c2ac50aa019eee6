package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/models"
	"github.com/taskflow/taskflow-api/internal/request"
	"github.com/taskflow/taskflow-api/internal/store"
	"github.com/taskflow/taskflow-api/internal/validation"
)

// fakeTodoStore is an in-memory store.TodoStoreInterface for handler tests.
type fakeTodoStore struct {
	mu    sync.Mutex
	todos map[uuid.UUID]*models.Todo
	clock time.Time
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{
		todos: make(map[uuid.UUID]*models.Todo),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeTodoStore) List(_ context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Todo{}
	for _, todo := range f.todos {
		if todo.OwnerID == ownerID {
			cp := *todo
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeTodoStore) Get(_ context.Context, ownerID, id uuid.UUID) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, database.ErrNotFound
	}
	cp := *todo
	return &cp, nil
}

func (f *fakeTodoStore) Create(_ context.Context, ownerID uuid.UUID, description string, category models.Category, dueDate *time.Time) (*models.Todo, error) {
	description = validation.SanitizeDescription(description)
	if err := validation.ValidateDescription(description); err != nil {
		return nil, &store.ValidationError{Field: "description", Message: err.Error()}
	}
	if !category.IsValid() {
		return nil, &store.ValidationError{Field: "category", Message: "invalid category"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	todo := &models.Todo{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Description: description,
		Category:    category,
		Completed:   false,
		CreatedAt:   f.clock,
		DueDate:     dueDate,
	}
	cp := *todo
	f.todos[todo.ID] = &cp
	return todo, nil
}

func (f *fakeTodoStore) Update(_ context.Context, ownerID, id uuid.UUID, patch store.TodoPatch) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, database.ErrNotFound
	}
	if patch.Description != nil {
		description := validation.SanitizeDescription(*patch.Description)
		if err := validation.ValidateDescription(description); err != nil {
			return nil, &store.ValidationError{Field: "description", Message: err.Error()}
		}
		todo.Description = description
	}
	if patch.Category != nil {
		todo.Category = *patch.Category
	}
	if patch.ClearDueDate {
		todo.DueDate = nil
	} else if patch.DueDate != nil {
		todo.DueDate = patch.DueDate
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	cp := *todo
	return &cp, nil
}

func (f *fakeTodoStore) ToggleComplete(ctx context.Context, ownerID, id uuid.UUID, completed bool) (*models.Todo, error) {
	return f.Update(ctx, ownerID, id, store.TodoPatch{Completed: &completed})
}

func (f *fakeTodoStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return database.ErrNotFound
	}
	delete(f.todos, id)
	return nil
}

// memSuggestions is an in-memory cache.SuggestionStore.
type memSuggestions struct {
	mu       sync.Mutex
	slots    map[uuid.UUID]*models.CategorySuggestion
	consumed int
}

func newMemSuggestions() *memSuggestions {
	return &memSuggestions{slots: make(map[uuid.UUID]*models.CategorySuggestion)}
}

func (m *memSuggestions) Get(_ context.Context, ownerID uuid.UUID) (*models.CategorySuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[ownerID], nil
}

func (m *memSuggestions) Apply(_ context.Context, ownerID uuid.UUID, _ uint64, suggestion *models.CategorySuggestion) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[ownerID] = suggestion
	return true, nil
}

func (m *memSuggestions) Clear(_ context.Context, ownerID uuid.UUID, _ uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, ownerID)
	return nil
}

func (m *memSuggestions) Consume(_ context.Context, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, ownerID)
	m.consumed++
	return nil
}

// newAuthedRequest builds a request with a user already in context.
func newAuthedRequest(t *testing.T, user *models.User, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r.WithContext(request.WithUser(r.Context(), user))
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "user@example.com"}
}

// envelope is the standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return env
}

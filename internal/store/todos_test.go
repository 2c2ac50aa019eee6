package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/models"
)

// fakeTodoRepo is an in-memory TodoRepositoryInterface for store tests.
type fakeTodoRepo struct {
	mu    sync.Mutex
	todos map[uuid.UUID]*models.Todo
	clock time.Time
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{
		todos: make(map[uuid.UUID]*models.Todo),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeTodoRepo) Create(_ context.Context, todo *models.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	todo.CreatedAt = f.clock
	cp := *todo
	f.todos[todo.ID] = &cp
	return nil
}

func (f *fakeTodoRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, database.ErrNotFound
	}
	cp := *todo
	return &cp, nil
}

func (f *fakeTodoRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
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

func (f *fakeTodoRepo) Update(_ context.Context, todo *models.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.todos[todo.ID]
	if !ok || existing.OwnerID != todo.OwnerID {
		return database.ErrNotFound
	}
	cp := *todo
	cp.CreatedAt = existing.CreatedAt
	f.todos[todo.ID] = &cp
	return nil
}

func (f *fakeTodoRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	todo, ok := f.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return database.ErrNotFound
	}
	delete(f.todos, id)
	return nil
}

// fakeListCache records invalidations so cache behavior can be asserted.
type fakeListCache struct {
	mu           sync.Mutex
	entries      map[uuid.UUID][]*models.Todo
	invalidations int
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{entries: make(map[uuid.UUID][]*models.Todo)}
}

func (c *fakeListCache) Get(_ context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[ownerID], nil
}

func (c *fakeListCache) Set(_ context.Context, ownerID uuid.UUID, list []*models.Todo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ownerID] = list
	return nil
}

func (c *fakeListCache) Invalidate(_ context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ownerID)
	c.invalidations++
	return nil
}

func TestCreateThenListIncludesNewRecord(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	due := time.Date(2025, 7, 4, 15, 30, 0, 0, time.UTC)
	created, err := s.Create(ctx, owner, "Buy groceries", models.CategoryErrands, &due)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Completed {
		t.Error("new todo should not be completed")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected server-assigned creation timestamp")
	}
	if created.DueDate == nil || created.DueDate.Hour() != 0 {
		t.Errorf("expected due date normalized to calendar day, got %v", created.DueDate)
	}

	list, err := s.List(ctx, owner)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(list))
	}
	if list[0].ID != created.ID || list[0].Description != "Buy groceries" || list[0].Category != models.CategoryErrands {
		t.Errorf("listed record does not match created record: %+v", list[0])
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	first, _ := s.Create(ctx, owner, "first", models.CategoryWork, nil)
	second, _ := s.Create(ctx, owner, "second", models.CategoryWork, nil)

	list, err := s.List(ctx, owner)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("expected newest todo first")
	}
}

func TestListEmptyOwnerReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)

	list, err := s.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty slice, got %v", list)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name        string
		description string
		category    models.Category
		wantField   string
	}{
		{name: "empty description", description: "   ", category: models.CategoryWork, wantField: "description"},
		{name: "overlong description", description: strings.Repeat("a", 201), category: models.CategoryWork, wantField: "description"},
		{name: "out-of-set category", description: "valid", category: models.Category("Chores"), wantField: "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := s.Create(ctx, owner, tt.description, tt.category, nil)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestPartialUpdateRetainsOmittedFields(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, owner, "Pay rent", models.CategoryFinance, &due)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	newCategory := models.CategoryPersonal
	updated, err := s.Update(ctx, owner, created.ID, TodoPatch{Category: &newCategory})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if updated.Category != models.CategoryPersonal {
		t.Errorf("category = %q, want Personal", updated.Category)
	}
	if updated.Description != "Pay rent" {
		t.Errorf("description changed unexpectedly: %q", updated.Description)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("due date changed unexpectedly: %v", updated.DueDate)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("created_at must never be rewritten")
	}
}

func TestUpdateClearsDueDate(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created, _ := s.Create(ctx, owner, "Dentist", models.CategoryHealth, &due)

	updated, err := s.Update(ctx, owner, created.ID, TodoPatch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.DueDate != nil {
		t.Errorf("expected cleared due date, got %v", updated.DueDate)
	}
}

func TestToggleCompleteRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	created, _ := s.Create(ctx, owner, "Read book", models.CategoryEducation, nil)

	on, err := s.ToggleComplete(ctx, owner, created.ID, true)
	if err != nil {
		t.Fatalf("ToggleComplete(true) error: %v", err)
	}
	if !on.Completed {
		t.Error("expected completed=true")
	}

	off, err := s.ToggleComplete(ctx, owner, created.ID, false)
	if err != nil {
		t.Fatalf("ToggleComplete(false) error: %v", err)
	}
	if off.Completed {
		t.Error("expected completed=false after round trip")
	}
	if off.Description != created.Description || off.Category != created.Category {
		t.Error("toggle must not change other fields")
	}
}

func TestDeleteRemovesAndSecondDeleteFails(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	created, _ := s.Create(ctx, owner, "Old task", models.CategoryOther, nil)

	if err := s.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	list, _ := s.List(ctx, owner)
	for _, todo := range list {
		if todo.ID == created.ID {
			t.Error("deleted todo still present in listing")
		}
	}

	if err := s.Delete(ctx, owner, created.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	created, _ := s.Create(ctx, alice, "Alice's task", models.CategoryPersonal, nil)

	if _, err := s.Get(ctx, bob, created.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("cross-owner get: got %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, bob, created.ID, TodoPatch{}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("cross-owner update: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, bob, created.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("cross-owner delete: got %v, want ErrNotFound", err)
	}

	bobList, _ := s.List(ctx, bob)
	if len(bobList) != 0 {
		t.Error("another owner's task must never be visible")
	}
}

func TestMutationsInvalidateListingCache(t *testing.T) {
	t.Parallel()

	listCache := newFakeListCache()
	s := NewTodoStore(newFakeTodoRepo(), listCache, nil)
	owner := uuid.New()
	ctx := context.Background()

	created, err := s.Create(ctx, owner, "Cache me", models.CategoryWork, nil)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Warm the cache, then mutate; the next list must reflect the write.
	if _, err := s.List(ctx, owner); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if _, err := s.ToggleComplete(ctx, owner, created.ID, true); err != nil {
		t.Fatalf("ToggleComplete error: %v", err)
	}

	list, err := s.List(ctx, owner)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || !list[0].Completed {
		t.Error("list after mutation must reflect the mutation")
	}

	listCache.mu.Lock()
	invalidations := listCache.invalidations
	listCache.mu.Unlock()
	if invalidations < 2 {
		t.Errorf("expected at least 2 invalidations (create + toggle), got %d", invalidations)
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(newFakeTodoRepo(), nil, nil)
	owner := uuid.New()
	ctx := context.Background()

	created, err := s.Create(ctx, owner, "Buy groceries", models.CategoryErrands, nil)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	list, _ := s.List(ctx, owner)
	if len(list) == 0 || list[0].ID != created.ID {
		t.Fatal("new task must appear first in listing")
	}

	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, owner, created.ID, TodoPatch{DueDate: &due})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", updated.DueDate, due)
	}
	if updated.Description != "Buy groceries" || updated.Category != models.CategoryErrands {
		t.Error("update with only due date must leave description and category unchanged")
	}

	if _, err := s.ToggleComplete(ctx, owner, created.ID, true); err != nil {
		t.Fatalf("ToggleComplete error: %v", err)
	}
	list, _ = s.List(ctx, owner)
	if !list[0].Completed {
		t.Error("listing must show completed=true after toggle")
	}

	if err := s.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	list, _ = s.List(ctx, owner)
	if len(list) != 0 {
		t.Error("listing must not contain deleted task")
	}
}

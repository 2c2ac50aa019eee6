package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/taskflow/taskflow-api/internal/models"
)

const listKeyPrefix = "todos:list:"

// ListCache caches per-owner todo listings.
type ListCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error)
	Set(ctx context.Context, ownerID uuid.UUID, list []*models.Todo) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

var _ ListCache = (*TodoListCache)(nil)

// TodoListCache caches per-owner todo listings in Redis. Every mutation in
// the store invalidates the owner's entry so a subsequent list reflects the
// write (read-your-writes within a session).
type TodoListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoListCache returns a new TodoListCache.
func NewTodoListCache(rdb *redis.Client, ttl time.Duration) *TodoListCache {
	return &TodoListCache{rdb: rdb, ttl: ttl}
}

func listKey(ownerID uuid.UUID) string {
	return listKeyPrefix + ownerID.String()
}

// Get returns the cached listing for an owner, or nil on a miss.
func (c *TodoListCache) Get(ctx context.Context, ownerID uuid.UUID) ([]*models.Todo, error) {
	b, err := c.rdb.Get(ctx, listKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing cache: %w", err)
	}
	var list []*models.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("failed to decode cached listing: %w", err)
	}
	return list, nil
}

// Set stores the listing for an owner.
func (c *TodoListCache) Set(ctx context.Context, ownerID uuid.UUID, list []*models.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode listing: %w", err)
	}
	if err := c.rdb.Set(ctx, listKey(ownerID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write listing cache: %w", err)
	}
	return nil
}

// Invalidate removes the cached listing for an owner.
func (c *TodoListCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	if err := c.rdb.Del(ctx, listKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate listing cache: %w", err)
	}
	return nil
}

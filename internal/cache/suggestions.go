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

const suggestionKeyPrefix = "suggestion:"

// maxCASRetries bounds the optimistic-transaction retry loop when the slot
// is contended by a concurrent writer.
const maxCASRetries = 5

// SuggestionStore holds the per-owner pending category suggestion. Writes
// carry the sequence tag assigned at schedule time; a write is applied only
// when its sequence is at least as new as the last one recorded, so a slow
// response for older text can never overwrite the suggestion for newer text.
type SuggestionStore interface {
	// Get returns the current suggestion for an owner, or nil when none is shown.
	Get(ctx context.Context, ownerID uuid.UUID) (*models.CategorySuggestion, error)

	// Apply records a suggestion produced for the given sequence. Returns
	// false when a newer sequence has already been recorded and the result
	// was discarded.
	Apply(ctx context.Context, ownerID uuid.UUID, seq uint64, suggestion *models.CategorySuggestion) (bool, error)

	// Clear empties the suggestion slot for the given sequence, keeping the
	// sequence watermark so stale in-flight results stay suppressed.
	Clear(ctx context.Context, ownerID uuid.UUID, seq uint64) error

	// Consume removes the suggestion slot entirely (suggestion applied to a
	// form, or owner's form submitted).
	Consume(ctx context.Context, ownerID uuid.UUID) error
}

// suggestionRecord is the serialized slot value. An empty Category means the
// slot is cleared but the watermark is retained.
type suggestionRecord struct {
	Seq       uint64          `json:"seq"`
	Category  models.Category `json:"category,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
}

// supersedes reports whether an incoming sequence may overwrite the current
// record. Equal sequences win so a fire and its own late clear still land.
func supersedes(current *suggestionRecord, seq uint64) bool {
	return current == nil || seq >= current.Seq
}

// RedisSuggestionStore implements SuggestionStore on Redis.
type RedisSuggestionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSuggestionStore returns a new RedisSuggestionStore.
func NewRedisSuggestionStore(rdb *redis.Client, ttl time.Duration) *RedisSuggestionStore {
	return &RedisSuggestionStore{rdb: rdb, ttl: ttl}
}

var _ SuggestionStore = (*RedisSuggestionStore)(nil)

func suggestionKey(ownerID uuid.UUID) string {
	return suggestionKeyPrefix + ownerID.String()
}

func (s *RedisSuggestionStore) current(ctx context.Context, ownerID uuid.UUID) (*suggestionRecord, error) {
	b, err := s.rdb.Get(ctx, suggestionKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestion slot: %w", err)
	}
	var rec suggestionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion slot: %w", err)
	}
	return &rec, nil
}

// compareAndSet writes rec only when seq supersedes the stored record. The
// read, the check, and the write run as one optimistic transaction: the key
// is WATCHed, so a concurrent writer (the server clearing while a worker
// applies, or two workers racing) aborts the EXEC and the operation retries
// against the fresh record instead of overwriting it blind.
func (s *RedisSuggestionStore) compareAndSet(ctx context.Context, ownerID uuid.UUID, seq uint64, rec *suggestionRecord) (bool, error) {
	key := suggestionKey(ownerID)

	b, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode suggestion slot: %w", err)
	}

	var applied bool
	txn := func(tx *redis.Tx) error {
		applied = false

		var current *suggestionRecord
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			current = nil
		case err != nil:
			return fmt.Errorf("failed to read suggestion slot: %w", err)
		default:
			var decoded suggestionRecord
			if err := json.Unmarshal(raw, &decoded); err != nil {
				return fmt.Errorf("failed to decode suggestion slot: %w", err)
			}
			current = &decoded
		}

		if !supersedes(current, seq) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		applied = true
		return nil
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return applied, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return false, err
	}
	return false, fmt.Errorf("suggestion slot contended: %w", redis.TxFailedErr)
}

// Get returns the current suggestion for an owner, or nil when none is shown.
func (s *RedisSuggestionStore) Get(ctx context.Context, ownerID uuid.UUID) (*models.CategorySuggestion, error) {
	rec, err := s.current(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Category == "" {
		return nil, nil
	}
	return &models.CategorySuggestion{
		Category:  rec.Category,
		Reasoning: rec.Reasoning,
	}, nil
}

// Apply records a suggestion for the given sequence unless superseded.
func (s *RedisSuggestionStore) Apply(ctx context.Context, ownerID uuid.UUID, seq uint64, suggestion *models.CategorySuggestion) (bool, error) {
	return s.compareAndSet(ctx, ownerID, seq, &suggestionRecord{
		Seq:       seq,
		Category:  suggestion.Category,
		Reasoning: suggestion.Reasoning,
	})
}

// Clear empties the slot for the given sequence, retaining the watermark.
func (s *RedisSuggestionStore) Clear(ctx context.Context, ownerID uuid.UUID, seq uint64) error {
	_, err := s.compareAndSet(ctx, ownerID, seq, &suggestionRecord{Seq: seq})
	return err
}

// Consume removes the slot entirely.
func (s *RedisSuggestionStore) Consume(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.rdb.Del(ctx, suggestionKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to consume suggestion slot: %w", err)
	}
	return nil
}

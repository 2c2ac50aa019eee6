package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow-api/internal/models"
)

func TestSupersedes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current *suggestionRecord
		seq     uint64
		want    bool
	}{
		{name: "empty slot accepts any sequence", current: nil, seq: 1, want: true},
		{name: "newer sequence wins", current: &suggestionRecord{Seq: 3}, seq: 5, want: true},
		{name: "equal sequence wins", current: &suggestionRecord{Seq: 4}, seq: 4, want: true},
		{name: "older sequence discarded", current: &suggestionRecord{Seq: 7}, seq: 4, want: false},
		{name: "cleared slot still guards by watermark", current: &suggestionRecord{Seq: 9}, seq: 8, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := supersedes(tt.current, tt.seq); got != tt.want {
				t.Errorf("supersedes(%+v, %d) = %v, want %v", tt.current, tt.seq, got, tt.want)
			}
		})
	}
}

func TestSuggestionRecordRoundTrip(t *testing.T) {
	t.Parallel()

	rec := suggestionRecord{
		Seq:       12,
		Category:  models.CategoryErrands,
		Reasoning: "Shopping tasks are errands.",
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got suggestionRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got != rec {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestClearedRecordHasNoCategory(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(suggestionRecord{Seq: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got suggestionRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Category != "" {
		t.Errorf("expected cleared record to carry no category, got %q", got.Category)
	}
	if got.Seq != 3 {
		t.Errorf("expected watermark to survive, got %d", got.Seq)
	}
}

// testRedisClient connects to the Redis instance named by TEST_REDIS_URL.
// Tests that need a live instance skip when it is not set.
func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set - requires a live Redis instance")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse TEST_REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at TEST_REDIS_URL: %v", err)
	}

	return client
}

func TestClearSupersedesRacingApply(t *testing.T) {
	rdb := testRedisClient(t)
	store := NewRedisSuggestionStore(rdb, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	// A worker result for an old draft races the clear issued when the
	// owner shortened the draft. Whichever side reaches Redis first, the
	// cleared state must win: typing "buy", waiting, then deleting to "b"
	// must never redisplay the suggestion computed for "buy".
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = store.Apply(ctx, owner, 1, &models.CategorySuggestion{
			Category:  models.CategoryErrands,
			Reasoning: "Shopping tasks are errands.",
		})
	}()
	go func() {
		defer wg.Done()
		if err := store.Clear(ctx, owner, 2); err != nil {
			t.Errorf("Clear: %v", err)
		}
	}()
	wg.Wait()

	got, err := store.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("stale suggestion resurrected after clear: %+v", got)
	}

	// The watermark must also keep rejecting the stale sequence later.
	applied, err := store.Apply(ctx, owner, 1, &models.CategorySuggestion{Category: models.CategoryErrands})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied {
		t.Error("expected stale apply to be rejected by the watermark")
	}
}

func TestConcurrentAppliesNewestWins(t *testing.T) {
	rdb := testRedisClient(t)
	store := NewRedisSuggestionStore(rdb, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	categories := models.Categories()

	var wg sync.WaitGroup
	for seq := uint64(1); seq <= 20; seq++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			_, _ = store.Apply(ctx, owner, seq, &models.CategorySuggestion{
				Category: categories[seq%uint64(len(categories))],
			})
		}(seq)
	}
	wg.Wait()

	got, err := store.Get(ctx, owner)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a suggestion to survive")
	}
	if want := categories[20%uint64(len(categories))]; got.Category != want {
		t.Errorf("expected the highest sequence's category %q, got %q", want, got.Category)
	}
}

package suggest

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MinDraftLength is the minimum number of trimmed characters a draft
	// needs before a suggestion is worth requesting.
	MinDraftLength = 3
	// DefaultQuietPeriod is how long a draft must sit unchanged before a
	// suggestion request fires.
	DefaultQuietPeriod = time.Second
)

// FireFunc is invoked once a draft has been quiet for the full period.
// The sequence tag identifies the request; any response carrying an older
// tag than the owner's current one must be discarded downstream.
type FireFunc func(owner uuid.UUID, seq uint64, description string)

// ClearFunc is invoked when a draft becomes too short to suggest for.
// Implementations advance the owner's sequence watermark so in-flight
// responses from earlier drafts cannot surface afterwards.
type ClearFunc func(owner uuid.UUID, seq uint64)

// Coordinator debounces suggestion requests per owner. Each draft edit
// restarts the owner's quiet-period timer, so a burst of edits produces at
// most one request, carrying the final text. Sequence tags are strictly
// increasing per owner across both fires and clears.
type Coordinator struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*slot
	quiet   time.Duration
	fire    FireFunc
	clear   ClearFunc
	logger  *zap.Logger
	stopped bool
}

type slot struct {
	seq   uint64
	timer *time.Timer
}

// NewCoordinator creates a coordinator. A zero quiet period falls back to
// DefaultQuietPeriod.
func NewCoordinator(quiet time.Duration, fire FireFunc, clear ClearFunc, logger *zap.Logger) *Coordinator {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		slots:  make(map[uuid.UUID]*slot),
		quiet:  quiet,
		fire:   fire,
		clear:  clear,
		logger: logger,
	}
}

// Observe records a draft edit for an owner. It returns true if a
// suggestion request was scheduled, false if the draft was too short and
// any pending or displayed suggestion should be cleared instead.
func (c *Coordinator) Observe(owner uuid.UUID, description string) bool {
	trimmed := strings.TrimSpace(description)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}

	s, ok := c.slots[owner]
	if !ok {
		s = &slot{}
		c.slots[owner] = s
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	seq := s.seq

	if utf8.RuneCountInString(trimmed) < MinDraftLength {
		c.logger.Debug("suggestion_draft_cleared",
			zap.String("owner_id", owner.String()),
			zap.Uint64("seq", seq),
		)
		go c.clear(owner, seq)
		return false
	}

	s.timer = time.AfterFunc(c.quiet, func() {
		c.fireIfCurrent(owner, seq, trimmed)
	})
	c.logger.Debug("suggestion_draft_scheduled",
		zap.String("owner_id", owner.String()),
		zap.Uint64("seq", seq),
	)
	return true
}

// fireIfCurrent runs on timer expiry. A newer edit may have raced the
// timer's Stop; the sequence check makes the older callback a no-op.
func (c *Coordinator) fireIfCurrent(owner uuid.UUID, seq uint64, description string) {
	c.mu.Lock()
	s, ok := c.slots[owner]
	current := ok && s.seq == seq && !c.stopped
	if current {
		s.timer = nil
	}
	c.mu.Unlock()

	if !current {
		return
	}
	c.fire(owner, seq, description)
}

// Stop cancels all pending timers. Further Observe calls are no-ops.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for _, s := range c.slots {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
}

package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/queue"
	"github.com/taskflow/taskflow-api/internal/services/suggest"
)

// CategorySuggester processes category suggestion jobs. Results land in
// the suggestion store keyed by owner, guarded by the job's sequence tag,
// so a slow response for an old draft can never replace a newer one.
type CategorySuggester struct {
	provider suggest.Suggester
	store    cache.SuggestionStore
	logger   *zap.Logger
}

// NewCategorySuggester creates a new category suggester
func NewCategorySuggester(provider suggest.Suggester, store cache.SuggestionStore, logger *zap.Logger) *CategorySuggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategorySuggester{
		provider: provider,
		store:    store,
		logger:   logger,
	}
}

// ProcessJob processes a job based on its type
func (s *CategorySuggester) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeCategorySuggestion:
		if err := s.processSuggestionJob(ctx, job); err != nil {
			// Store write failed; the result is lost, send to DLQ
			if nackErr := msg.Nack(false); nackErr != nil {
				s.logger.Error("failed_to_nack_job", zap.Error(nackErr), zap.String("job_id", job.ID.String()))
			}
			return err
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			s.logger.Error("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// processSuggestionJob asks the provider for a suggestion and applies it.
// Provider failures are soft: the owner's suggestion is cleared and the
// job succeeds, so the todo flow degrades without the suggestion. Only a
// store write failure is returned as an error.
func (s *CategorySuggester) processSuggestionJob(ctx context.Context, job *queue.Job) error {
	suggestion, err := s.provider.Suggest(ctx, job.Description)
	if err != nil {
		s.logger.Warn("suggestion_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("owner_id", job.OwnerID.String()),
			zap.Uint64("seq", job.Seq),
			zap.Error(err),
		)
		if clearErr := s.store.Clear(ctx, job.OwnerID, job.Seq); clearErr != nil {
			return fmt.Errorf("failed to clear suggestion after provider error: %w", clearErr)
		}
		return nil
	}

	applied, err := s.store.Apply(ctx, job.OwnerID, job.Seq, suggestion)
	if err != nil {
		return fmt.Errorf("failed to apply suggestion: %w", err)
	}
	if !applied {
		s.logger.Debug("stale_suggestion_discarded",
			zap.String("owner_id", job.OwnerID.String()),
			zap.Uint64("seq", job.Seq),
		)
		return nil
	}

	s.logger.Info("suggestion_applied",
		zap.String("owner_id", job.OwnerID.String()),
		zap.Uint64("seq", job.Seq),
		zap.String("category", string(suggestion.Category)),
	)
	return nil
}

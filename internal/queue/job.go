package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCategorySuggestion is a job for suggesting a category for a draft description
	JobTypeCategorySuggestion JobType = "category_suggestion"
)

// Job represents a job in the queue
type Job struct {
	ID          uuid.UUID `json:"id"`
	Type        JobType   `json:"type"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Seq         uint64    `json:"seq"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	RetryCount  int       `json:"retry_count"`
	MaxRetries  int       `json:"max_retries"`
}

// NewSuggestionJob creates a job requesting a category suggestion for a
// draft. Suggestion jobs are never retried: by the time a retry would land
// the draft has usually moved on, and the owner's sequence watermark would
// discard the result anyway.
func NewSuggestionJob(ownerID uuid.UUID, seq uint64, description string) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        JobTypeCategorySuggestion,
		OwnerID:     ownerID,
		Seq:         seq,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		RetryCount:  0,
		MaxRetries:  0,
	}
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

package queue

import (
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeReminder delivers a study reminder
	JobTypeReminder JobType = "reminder"
)

// DefaultMaxRetries is how often a failed job may be retried before it is dead-lettered
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID            `json:"id"`
	Type         JobType              `json:"type"`
	UserID       string               `json:"user_id,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	NotBefore    *time.Time           `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter     *time.Time           `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt    time.Time            `json:"created_at"`
	RetryCount   int                  `json:"retry_count"`
	MaxRetries   int                  `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewReminderJob wraps a notification. A reminder is stale after ttl; zero means it never expires.
func NewReminderJob(userID string, n models.Notification, ttl time.Duration) *Job {
	job := NewJob(JobTypeReminder, userID)
	job.Notification = &n
	if ttl > 0 {
		notAfter := job.CreatedAt.Add(ttl)
		job.NotAfter = &notAfter
	}
	return job
}

// ShouldProcess reports whether now falls inside the job's processing window
func (j *Job) ShouldProcess(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpired(now)
}

// IsExpired reports whether the job's deadline has passed
func (j *Job) IsExpired(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

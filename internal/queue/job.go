package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeReminderDue delivers a task reminder
	JobTypeReminderDue JobType = "reminder_due"
	// JobTypeTimerComplete delivers a pomodoro session completion
	JobTypeTimerComplete JobType = "timer_complete"
)

// Metadata keys carried by notification jobs
const (
	MetaTitle = "title"
	MetaBody  = "body"
)

// DefaultMaxRetries is how often a failed delivery is retried before the job
// is dead-lettered
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	TaskID     int64          `json:"task_id,omitempty"`    // Set for reminder jobs
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewNotificationJob creates a job that delivers a titled message
func NewNotificationJob(jobType JobType, title, body string, taskID int64) *Job {
	job := NewJob(jobType)
	job.TaskID = taskID
	job.Metadata[MetaTitle] = title
	job.Metadata[MetaBody] = body
	return job
}

// MetaString returns a string metadata value, or "" if absent
func (j *Job) MetaString(key string) string {
	if j.Metadata == nil {
		return ""
	}
	s, _ := j.Metadata[key].(string)
	return s
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// RetryAt returns a copy of the job scheduled for notBefore with the retry
// count incremented. The id is kept so deliveries can be correlated in logs.
func (j *Job) RetryAt(notBefore time.Time) *Job {
	retry := *j
	retry.NotBefore = &notBefore
	retry.RetryCount = j.RetryCount + 1
	return &retry
}

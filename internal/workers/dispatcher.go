package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/itsdone/internal/queue"
	"github.com/benvon/itsdone/internal/reminders"
	"go.uber.org/zap"
)

// RetryBaseDelay is the first retry delay for a failed delivery. It doubles
// with every attempt.
const RetryBaseDelay = 5 * time.Second

// Dispatcher delivers notification jobs taken off the queue
type Dispatcher struct {
	notifier reminders.Notifier
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(notifier reminders.Notifier, jobQueue queue.JobQueue, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifier: notifier,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessJob delivers one message and settles it
func (d *Dispatcher) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.GetJob()

	if job.IsExpired() {
		d.logger.Info("notification_expired", zap.String("job_id", job.ID.String()))
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return nil
	}

	n, err := reminders.FromJob(job)
	if err != nil {
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return err
	}

	if err := d.notifier.Notify(ctx, n); err != nil {
		return d.handleJobError(ctx, msg, job, err)
	}

	d.logger.Info("notification_delivered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int64("task_id", job.TaskID),
	)
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError retries a failed delivery with backoff, dead-lettering the
// job once its retries are spent
func (d *Dispatcher) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	if !job.CanRetry() {
		d.logger.Error("notification_failed_permanently",
			zap.String("job_id", job.ID.String()),
			zap.Int("retries", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	delay := RetryDelay(job.RetryCount)
	if d.jobQueue != nil {
		retry := job.RetryAt(time.Now().Add(delay))
		enqueueErr := d.jobQueue.Enqueue(ctx, retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				d.logger.Warn("failed_to_ack_job", zap.Error(ackErr))
			}
			d.logger.Warn("notification_retry_scheduled",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempt", retry.RetryCount),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			return fmt.Errorf("job failed (will retry): %w", err)
		}
		err = errors.Join(err, fmt.Errorf("failed to re-enqueue: %w", enqueueErr))
	}

	// No way to delay the retry, so hand it straight back to the broker
	if nackErr := msg.Nack(true); nackErr != nil {
		d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (requeued): %w", err)
}

// RetryDelay is the backoff before retry attempt+1, capped at five minutes
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6
	}
	delay := RetryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}

// Run consumes messages until ctx is cancelled or the queue goes away
func (d *Dispatcher) Run(ctx context.Context, prefetch int) error {
	msgChan, errChan, err := d.jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			d.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				return errors.New("message channel closed")
			}
			if err := d.ProcessJob(ctx, msg); err != nil {
				d.logger.Error("failed_to_process_job",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}

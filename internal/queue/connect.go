package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectAttempts is how often Connect dials before giving up
	DefaultConnectAttempts = 10
	connectInitialDelay    = 2 * time.Second
	connectMaxDelay        = 30 * time.Second
)

// Connect dials RabbitMQ, retrying with exponential backoff so a broker that
// is still starting up does not take the process down
func Connect(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := ConnectDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up connecting to RabbitMQ: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// ConnectDelay is the wait after failed attempt n (zero based)
func ConnectDelay(attempt int) time.Duration {
	if attempt > 4 {
		return connectMaxDelay
	}
	delay := connectInitialDelay * time.Duration(1<<uint(attempt))
	if delay > connectMaxDelay {
		delay = connectMaxDelay
	}
	return delay
}

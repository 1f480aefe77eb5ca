package queue

import (
	"context"
	"time"
)

// Delivery is a job handed out by a Consumer. Exactly one of Ack or Nack
// settles it.
type Delivery interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Publisher puts notification jobs on the queue
type Publisher interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Consumer streams deliveries. prefetchCount bounds how many unsettled
// deliveries the broker hands out at once; both channels close when ctx is
// cancelled.
type Consumer interface {
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)
}

// JobQueue is the notification queue shared by the server and the worker
type JobQueue interface {
	Publisher
	Consumer
	HealthCheck(ctx context.Context) error
	Close() error
}

// DLQPurger removes dead-lettered messages older than a retention period
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}

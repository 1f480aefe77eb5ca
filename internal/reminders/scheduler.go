// Package reminders turns task reminder times into notifications.
//
// A Scheduler holds one timer per incomplete task whose reminder time lies
// in the future. Every change to the task collection replaces the whole
// timer set, so a reminder fires at most once for the schedule it belongs to.
package reminders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"go.uber.org/zap"
)

// DefaultNotifyTimeout bounds one notification delivery
const DefaultNotifyTimeout = 10 * time.Second

// Scheduler fires reminder notifications
type Scheduler struct {
	mu       sync.Mutex
	timers   map[int64]*time.Timer
	gen      uint64
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler delivering through notifier
func NewScheduler(notifier Notifier, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		timers:   make(map[int64]*time.Timer),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reschedule cancels every pending reminder and schedules one for each
// incomplete task whose reminder time is still ahead
func (s *Scheduler) Reschedule(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	now := s.now()

	for _, task := range tasks {
		if task.Completed || !task.HasReminder() {
			continue
		}
		delay := task.ReminderTime.Sub(now)
		if delay <= 0 {
			continue
		}
		task := task
		s.timers[task.ID] = time.AfterFunc(delay, func() { s.fire(gen, task) })
	}

	s.logger.Debug("reminders_rescheduled", zap.Int("pending", len(s.timers)))
}

func (s *Scheduler) fire(gen uint64, task models.Task) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, task.ID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultNotifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, ReminderNotification(task)); err != nil {
		s.logger.Error("failed_to_deliver_reminder",
			zap.Int64("task_id", task.ID),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("reminder_fired", zap.Int64("task_id", task.ID))
}

// Pending lists the ids of tasks with a scheduled reminder
func (s *Scheduler) Pending() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stop cancels every pending reminder
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
}

func (s *Scheduler) stopLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

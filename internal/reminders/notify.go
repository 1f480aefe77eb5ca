package reminders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/queue"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Notification titles
const (
	ReminderTitle = "it's_done. Reminder"
	TimerTitle    = "it's_done. Timer"
)

// Kind says what raised a notification
type Kind string

const (
	KindReminder Kind = "reminder"
	KindTimer    Kind = "timer"
)

// Notification is a user-visible alert
type Notification struct {
	Kind   Kind
	Title  string
	Body   string
	TaskID int64
}

// ReminderNotification is the alert for a task whose reminder time arrived
func ReminderNotification(task models.Task) Notification {
	return Notification{Kind: KindReminder, Title: ReminderTitle, Body: task.Text, TaskID: task.ID}
}

// TimerNotification is the alert for a finished pomodoro session
func TimerNotification(completed pomodoro.Mode) Notification {
	return Notification{Kind: KindTimer, Title: TimerTitle, Body: completed.Name() + " session complete!"}
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Int64("task_id", n.TaskID),
	)
	return nil
}

var notificationStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("212")).
	Padding(0, 1)

var notificationTitleStyle = lipgloss.NewStyle().Bold(true)

// TerminalNotifier prints notifications as boxed banners
type TerminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalNotifier creates a TerminalNotifier writing to w
func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

// Notify prints n
func (t *TerminalNotifier) Notify(_ context.Context, n Notification) error {
	banner := notificationStyle.Render(notificationTitleStyle.Render(n.Title) + "\n" + n.Body)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintln(t.w, banner); err != nil {
		return fmt.Errorf("failed to print notification: %w", err)
	}
	return nil
}

// QueueNotifier hands notifications to the job queue for a worker to deliver
type QueueNotifier struct {
	queue queue.Publisher
}

// NewQueueNotifier creates a QueueNotifier
func NewQueueNotifier(q queue.Publisher) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// Notify enqueues n
func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	jobType := queue.JobTypeReminderDue
	if n.Kind == KindTimer {
		jobType = queue.JobTypeTimerComplete
	}
	if err := q.queue.Enqueue(ctx, queue.NewNotificationJob(jobType, n.Title, n.Body, n.TaskID)); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// ErrUnknownJobType is returned for jobs that do not carry a notification
var ErrUnknownJobType = errors.New("unknown notification job type")

// FromJob rebuilds the notification carried by a queue job
func FromJob(job *queue.Job) (Notification, error) {
	var kind Kind
	switch job.Type {
	case queue.JobTypeReminderDue:
		kind = KindReminder
	case queue.JobTypeTimerComplete:
		kind = KindTimer
	default:
		return Notification{}, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
	return Notification{
		Kind:   kind,
		Title:  job.MetaString(queue.MetaTitle),
		Body:   job.MetaString(queue.MetaBody),
		TaskID: job.TaskID,
	}, nil
}

// Multi delivers to every notifier and joins their errors
type Multi []Notifier

// Notify delivers n to each notifier in order
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Notifier = NotifierFunc(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*TerminalNotifier)(nil)
	_ Notifier = (*QueueNotifier)(nil)
	_ Notifier = Multi(nil)
)

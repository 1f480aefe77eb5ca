package reminders

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/queue"
)

// mockPublisher is a mock implementation of queue.Publisher
type mockPublisher struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockPublisher) Enqueue(ctx context.Context, job *queue.Job) error {
	m.enqueued = append(m.enqueued, job)
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

var _ queue.Publisher = (*mockPublisher)(nil)

func TestNotifications(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    Notification
		want Notification
	}{
		{
			name: "reminder",
			n:    ReminderNotification(models.Task{ID: 3, Text: "Pay rent"}),
			want: Notification{Kind: KindReminder, Title: "it's_done. Reminder", Body: "Pay rent", TaskID: 3},
		},
		{
			name: "work session",
			n:    TimerNotification(pomodoro.ModeWork),
			want: Notification{Kind: KindTimer, Title: "it's_done. Timer", Body: "Work session complete!"},
		},
		{
			name: "long break",
			n:    TimerNotification(pomodoro.ModeLongBreak),
			want: Notification{Kind: KindTimer, Title: "it's_done. Timer", Body: "Long Break session complete!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.n != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, tt.n)
			}
		})
	}
}

func TestQueueNotifierRoundTrip(t *testing.T) {
	t.Parallel()

	q := &mockPublisher{}
	notifier := NewQueueNotifier(q)

	sent := []Notification{
		ReminderNotification(models.Task{ID: 9, Text: "Stretch"}),
		TimerNotification(pomodoro.ModeShortBreak),
	}
	for _, n := range sent {
		if err := notifier.Notify(context.Background(), n); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if len(q.enqueued) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(q.enqueued))
	}
	if q.enqueued[0].Type != queue.JobTypeReminderDue || q.enqueued[1].Type != queue.JobTypeTimerComplete {
		t.Errorf("Unexpected job types: %s, %s", q.enqueued[0].Type, q.enqueued[1].Type)
	}

	for i, job := range q.enqueued {
		got, err := FromJob(job)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != sent[i] {
			t.Errorf("Expected %+v, got %+v", sent[i], got)
		}
	}
}

func TestQueueNotifierError(t *testing.T) {
	t.Parallel()

	errDown := errors.New("broker down")
	notifier := NewQueueNotifier(&mockPublisher{enqueueFunc: func(context.Context, *queue.Job) error { return errDown }})
	if err := notifier.Notify(context.Background(), TimerNotification(pomodoro.ModeWork)); !errors.Is(err, errDown) {
		t.Errorf("Expected broker error, got %v", err)
	}
}

func TestFromJobUnknownType(t *testing.T) {
	t.Parallel()

	if _, err := FromJob(queue.NewJob("task_analysis")); !errors.Is(err, ErrUnknownJobType) {
		t.Errorf("Expected ErrUnknownJobType, got %v", err)
	}
}

func TestTerminalNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewTerminalNotifier(&buf).Notify(context.Background(), ReminderNotification(models.Task{Text: "Water plants"})); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, ReminderTitle) || !strings.Contains(out, "Water plants") {
		t.Errorf("Expected title and body in output, got %q", out)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	var delivered int
	m := Multi{
		NotifierFunc(func(context.Context, Notification) error { return errA }),
		NotifierFunc(func(context.Context, Notification) error { delivered++; return nil }),
		NewLogNotifier(nil),
	}
	err := m.Notify(context.Background(), TimerNotification(pomodoro.ModeWork))
	if !errors.Is(err, errA) {
		t.Errorf("Expected joined error to include errA, got %v", err)
	}
	if delivered != 1 {
		t.Errorf("Expected later notifiers to still run, got %d deliveries", delivered)
	}
}

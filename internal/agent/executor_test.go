package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/itsdone/internal/database"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/store"
)

// mockDecomposer is a mock implementation of Decomposer
type mockDecomposer struct {
	decomposeFunc func(ctx context.Context, goal string) ([]string, error)
	calls         int
}

func (m *mockDecomposer) Decompose(ctx context.Context, goal string) ([]string, error) {
	m.calls++
	if m.decomposeFunc != nil {
		return m.decomposeFunc(ctx, goal)
	}
	return []string{"Step one", "Step two"}, nil
}

var _ Decomposer = (*mockDecomposer)(nil)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(database.NewMemoryKV(), nil,
		store.WithClock(func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local) }))
	s.Load(context.Background())
	return s
}

func seedTask(t *testing.T, s *store.Store, text string) models.Task {
	t.Helper()
	task, err := s.SaveTask(context.Background(), models.TaskInput{Text: models.Ptr(text)})
	if err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}

func TestExecutor_DispatchTable(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	milk := seedTask(t, s, "Buy milk")
	report := seedTask(t, s, "Write report")
	at := models.Timestamp{Time: time.Date(2025, 3, 14, 17, 0, 0, 0, time.Local)}

	exec := NewExecutor(s, &mockDecomposer{}, nil)
	outcomes := exec.Execute(ctx, []models.Action{
		models.AddTask{Text: "Plan trip", Priority: models.PriorityHigh, Category: "Travel"},
		models.ToggleTask{Ref: models.TaskRef{ID: milk.ID}},
		models.SetReminder{Ref: models.TaskRef{ID: report.ID}, ReminderTime: at},
		models.SetFocus{Text: "Deep work"},
		models.AddJournalEntry{Content: "Good day"},
		models.StartTimer{},
	})

	for i, o := range outcomes {
		if !o.Applied {
			t.Errorf("Expected outcome %d to be applied, got reason '%s'", i, o.Reason)
		}
	}

	tasks := s.Tasks(store.ListOptions{})
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}
	if added := tasks[2]; added.Text != "Plan trip" || added.Priority != models.PriorityHigh || added.Category != "Travel" {
		t.Errorf("Expected added task, got %+v", added)
	}
	if !tasks[0].Completed {
		t.Error("Expected milk to be completed")
	}
	if !tasks[1].HasReminder() || !tasks[1].ReminderTime.Equal(at.Time) {
		t.Errorf("Expected reminder on report, got %+v", tasks[1].ReminderTime)
	}
	if s.Focus() != "Deep work" {
		t.Errorf("Expected focus 'Deep work', got '%s'", s.Focus())
	}
	if e, ok := s.JournalEntry("2025-03-14"); !ok || e.Content != "Good day" {
		t.Errorf("Expected today's journal entry, got %+v", e)
	}
	if st, _ := s.PomodoroStatus(); !st.IsActive {
		t.Error("Expected timer to be running")
	}
	if outcomes[2].Summary != `Set reminder for "Write report" at Mar 14, 2025 5:00 PM` {
		t.Errorf("Expected reminder summary naming the task, got '%s'", outcomes[2].Summary)
	}
}

func TestExecutor_TimerActions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	exec := NewExecutor(s, nil, nil)
	ctx := context.Background()

	exec.Execute(ctx, []models.Action{models.StartTimer{}, models.PauseTimer{}})
	if st, _ := s.PomodoroStatus(); st.IsActive {
		t.Error("Expected timer paused")
	}
	s.Pomodoro(ctx, pomodoro.EventSwitch)
	exec.Execute(ctx, []models.Action{models.ResetTimer{}})
	if st, _ := s.PomodoroStatus(); st.Mode != pomodoro.ModeWork || st.Cycles != 0 || st.IsActive {
		t.Errorf("Expected reset timer, got %+v", st)
	}
}

func TestExecutor_MissingIDsAreNoOps(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedTask(t, s, "Keep me")
	exec := NewExecutor(s, nil, nil)

	actions := []models.Action{
		models.ToggleTask{Ref: models.TaskRef{ID: 999}},
		models.DeleteTask{Ref: models.TaskRef{ID: 999}},
		models.CancelReminder{Ref: models.TaskRef{ID: 999}},
		models.ToggleTask{Ref: models.TaskRef{Text: "unresolved"}},
	}
	for run := 0; run < 2; run++ {
		outcomes := exec.Execute(context.Background(), actions)
		for i, o := range outcomes {
			if o.Applied {
				t.Errorf("Run %d: expected action %d to be inert", run, i)
			}
		}
	}
	if tasks := s.Tasks(store.ListOptions{}); len(tasks) != 1 || tasks[0].Completed {
		t.Errorf("Expected state untouched, got %+v", tasks)
	}
}

func TestExecutor_IdempotentDeleteAndReminder(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	a := seedTask(t, s, "a")
	b := seedTask(t, s, "b")
	exec := NewExecutor(s, nil, nil)
	at := models.Timestamp{Time: time.Date(2025, 3, 15, 9, 0, 0, 0, time.Local)}
	actions := []models.Action{
		models.DeleteTask{Ref: models.TaskRef{ID: a.ID}},
		models.SetReminder{Ref: models.TaskRef{ID: b.ID}, ReminderTime: at},
	}

	exec.Execute(context.Background(), actions)
	first := s.Snapshot().Tasks
	exec.Execute(context.Background(), actions)
	second := s.Snapshot().Tasks

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Expected one task after both runs, got %d and %d", len(first), len(second))
	}
	if !second[0].ReminderTime.Equal(first[0].ReminderTime.Time) {
		t.Error("Expected reminder unchanged by the retry")
	}
}

func TestExecutor_InvalidActionsDoNotAbort(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	exec := NewExecutor(s, nil, nil)
	outcomes := exec.Execute(context.Background(), []models.Action{
		models.InvalidAction{Name: "launchRocket", Reason: "unknown tool"},
		nil,
		models.AddTask{Text: "after"},
	})

	if outcomes[0].Applied || outcomes[0].Reason != "unknown tool" {
		t.Errorf("Expected unknown tool to be skipped, got %+v", outcomes[0])
	}
	if outcomes[1].Applied {
		t.Error("Expected nil action to be skipped")
	}
	if !outcomes[2].Applied {
		t.Errorf("Expected add after invalid actions to run, got '%s'", outcomes[2].Reason)
	}
}

func TestExecutor_Breakdown(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	dec := &mockDecomposer{}
	exec := NewExecutor(s, dec, nil)

	outcomes := exec.Execute(context.Background(), []models.Action{models.BreakdownTask{Goal: "Launch site"}})
	if !outcomes[0].Applied || outcomes[0].Summary != `Broke down goal: "Launch site"` {
		t.Errorf("Expected applied breakdown, got %+v", outcomes[0])
	}
	tasks := s.Tasks(store.ListOptions{Category: "Launch site"})
	if len(tasks) != 2 || tasks[0].Text != "Step one" || tasks[1].Text != "Step two" {
		t.Errorf("Expected two sub-tasks in the goal category, got %+v", tasks)
	}
	if tasks[0].Priority != models.PriorityMedium {
		t.Errorf("Expected default priority, got %s", tasks[0].Priority)
	}
}

func TestExecutor_BreakdownFailureContinues(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	dec := &mockDecomposer{decomposeFunc: func(ctx context.Context, goal string) ([]string, error) {
		return nil, errors.New("network down")
	}}
	exec := NewExecutor(s, dec, nil)

	outcomes := exec.Execute(context.Background(), []models.Action{
		models.BreakdownTask{Goal: "Launch site"},
		models.SetFocus{Text: "still runs"},
	})
	if outcomes[0].Applied {
		t.Error("Expected failed breakdown to be reported as not applied")
	}
	if !outcomes[1].Applied || s.Focus() != "still runs" {
		t.Error("Expected the rest of the batch to run")
	}
	if len(s.Tasks(store.ListOptions{})) != 0 {
		t.Error("Expected no tasks from a failed breakdown")
	}
}

package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expectError bool
		wantHour    int
	}{
		{name: "RFC3339", input: "2024-03-20T15:00:00Z", wantHour: 15},
		{name: "datetime-local", input: "2024-03-20T15:00", wantHour: 15},
		{name: "with seconds no zone", input: "2024-03-20T09:30:10", wantHour: 9},
		{name: "date only", input: "2024-03-20", wantHour: 0},
		{name: "space separated", input: "2024-03-20 18:45", wantHour: 18},
		{name: "empty", input: "", expectError: true},
		{name: "garbage", input: "next tuesday", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts, err := ParseTimestamp(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ts.Hour() != tt.wantHour {
				t.Errorf("Expected hour %d, got %d", tt.wantHour, ts.Hour())
			}
		})
	}
}

func TestTaskJSON(t *testing.T) {
	t.Parallel()

	raw := `{"id":1710000000000,"text":"Call mom","completed":false,"dueDate":"2024-03-20T15:00","reminderTime":"","priority":"High","category":"family"}`
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("Failed to unmarshal task: %v", err)
	}
	if task.ID != 1710000000000 {
		t.Errorf("Expected id 1710000000000, got %d", task.ID)
	}
	if !task.HasDueDate() {
		t.Error("Expected due date to be set")
	}
	if task.HasReminder() {
		t.Error("Expected empty reminder time to count as unset")
	}
	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority High, got %s", task.Priority)
	}

	out, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Failed to marshal task: %v", err)
	}
	if !strings.Contains(string(out), `"dueDate":"2024-03-20T15:00:00`) {
		t.Errorf("Expected RFC3339 due date in %s", out)
	}
}

func TestTaskInputApply(t *testing.T) {
	t.Parallel()

	due := Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	task := Task{ID: 1, Text: "old", Priority: PriorityLow, DueDate: &due, ReminderTime: &due}

	TaskInput{
		Text:          Ptr("new"),
		Priority:      Ptr(PriorityHigh),
		ClearReminder: true,
	}.Apply(&task)

	if task.Text != "new" {
		t.Errorf("Expected text 'new', got '%s'", task.Text)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority High, got %s", task.Priority)
	}
	if task.HasReminder() {
		t.Error("Expected reminder to be cleared")
	}
	if !task.HasDueDate() {
		t.Error("Expected due date to be kept")
	}
}

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	if PriorityHigh.Rank() >= PriorityMedium.Rank() || PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("Expected High < Medium < Low in rank order")
	}
	if Priority("").Rank() != PriorityMedium.Rank() {
		t.Error("Expected missing priority to rank as Medium")
	}
	if p, ok := ParsePriority(" high "); !ok || p != PriorityHigh {
		t.Errorf("Expected High, got %s (%v)", p, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("Expected unknown priority to be rejected")
	}
}

func TestDateKey(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 20, 12, 0, 0, 0, time.Local)
	if got := DateKey(ts); got != "2024-03-20" {
		t.Errorf("Expected '2024-03-20', got '%s'", got)
	}
}

func TestTaskPredicatesOnValues(t *testing.T) {
	t.Parallel()

	remindAt := NewTimestamp(time.Now().Add(time.Hour))
	tasks := map[string]Task{"plain": {Text: "a"}, "reminded": {Text: "b", ReminderTime: remindAt, DueDate: remindAt}}

	if tasks["plain"].HasReminder() || tasks["plain"].HasDueDate() {
		t.Error("Expected plain task to have no reminder or due date")
	}
	if !tasks["reminded"].HasReminder() || !tasks["reminded"].HasDueDate() {
		t.Error("Expected reminded task to have a reminder and due date")
	}
	if got := tasks["plain"].EffectivePriority(); got != DefaultPriority {
		t.Errorf("Expected default priority, got %s", got)
	}
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// DefaultPriority is assigned to tasks created without an explicit priority
const DefaultPriority = PriorityMedium

// ParsePriority parses a priority case-insensitively. Unknown values report false.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	default:
		return "", false
	}
}

// Rank orders priorities for sorting: High=1, Medium=2, Low=3.
// A missing priority ranks as Medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// timestampLayouts are tried in order when parsing. The zone-less layouts are
// what datetime-local pickers and most LLM outputs produce; they are read in
// local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is a point in time that accepts several input layouts
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// ParseTimestamp parses s using the accepted layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if strings.Contains(layout, "Z07") {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// MarshalJSON encodes the timestamp as RFC3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// UnmarshalJSON decodes any accepted layout. An empty string yields the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Task represents a task item. The JSON shape is the persisted format.
type Task struct {
	ID           int64      `json:"id"`
	Text         string     `json:"text"`
	Completed    bool       `json:"completed"`
	DueDate      *Timestamp `json:"dueDate,omitempty"`
	ReminderTime *Timestamp `json:"reminderTime,omitempty"`
	Priority     Priority   `json:"priority,omitempty"`
	Category     string     `json:"category,omitempty"`
}

// HasDueDate reports whether a due date is set
func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

// HasReminder reports whether a reminder time is set
func (t Task) HasReminder() bool {
	return t.ReminderTime != nil && !t.ReminderTime.IsZero()
}

// EffectivePriority returns the task priority, falling back to the default
func (t Task) EffectivePriority() Priority {
	if t.Priority == "" {
		return DefaultPriority
	}
	return t.Priority
}

// TaskInput carries the fields of a save request. A zero ID creates a new task;
// otherwise the non-nil fields are merged into the existing task.
type TaskInput struct {
	ID            int64      `json:"id,omitempty"`
	Text          *string    `json:"text,omitempty"`
	Completed     *bool      `json:"completed,omitempty"`
	DueDate       *Timestamp `json:"dueDate,omitempty"`
	ReminderTime  *Timestamp `json:"reminderTime,omitempty"`
	Priority      *Priority  `json:"priority,omitempty"`
	Category      *string    `json:"category,omitempty"`
	ClearDueDate  bool       `json:"clearDueDate,omitempty"`
	ClearReminder bool       `json:"clearReminder,omitempty"`
}

// Apply merges the input onto task
func (in TaskInput) Apply(task *Task) {
	if in.Text != nil {
		task.Text = *in.Text
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	if in.DueDate != nil && !in.DueDate.IsZero() {
		d := *in.DueDate
		task.DueDate = &d
	}
	if in.ClearDueDate {
		task.DueDate = nil
	}
	if in.ReminderTime != nil && !in.ReminderTime.IsZero() {
		r := *in.ReminderTime
		task.ReminderTime = &r
	}
	if in.ClearReminder {
		task.ReminderTime = nil
	}
	if in.Priority != nil && *in.Priority != "" {
		task.Priority = *in.Priority
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

package agent

import (
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/models"
)

// ReminderLayout formats reminder times in action descriptions
const ReminderLayout = "Jan 2, 2006 3:04 PM"

// Describe returns a one-line summary of an action
func Describe(a models.Action) string {
	switch v := a.(type) {
	case models.AddTask:
		return fmt.Sprintf("Added task: \"%s\"", v.Text)
	case models.ToggleTask:
		return fmt.Sprintf("Toggled task: \"%s\"", refLabel(v.Ref))
	case models.DeleteTask:
		return fmt.Sprintf("Deleted task: \"%s\"", refLabel(v.Ref))
	case models.SetFocus:
		return fmt.Sprintf("Set focus to: \"%s\"", v.Text)
	case models.StartTimer:
		return "Started timer."
	case models.PauseTimer:
		return "Paused timer."
	case models.ResetTimer:
		return "Reset timer."
	case models.AddJournalEntry:
		return "Added journal entry."
	case models.SetReminder:
		return fmt.Sprintf("Set reminder for \"%s\" at %s", refLabel(v.Ref), v.ReminderTime.Local().Format(ReminderLayout))
	case models.CancelReminder:
		return fmt.Sprintf("Cancelled reminder for \"%s\"", refLabel(v.Ref))
	case models.BreakdownTask:
		return fmt.Sprintf("Broke down goal: \"%s\"", v.Goal)
	case nil:
		return "Malformed action performed"
	default:
		return "Action: " + string(a.Tool())
	}
}

// DescribeAll joins the descriptions of actions, one per line
func DescribeAll(actions []models.Action) string {
	lines := make([]string, len(actions))
	for i, a := range actions {
		lines[i] = Describe(a)
	}
	return strings.Join(lines, "\n")
}

func refLabel(ref models.TaskRef) string {
	if ref.Text != "" {
		return ref.Text
	}
	if ref.ID != 0 {
		return fmt.Sprintf("#%d", ref.ID)
	}
	return ""
}

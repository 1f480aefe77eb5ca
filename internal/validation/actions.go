package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benvon/itsdone/internal/models"
)

type addTaskArgs struct {
	Text     string `validate:"notblank"`
	Priority string
	Category string
	DueDate  string `validate:"omitempty,timestamp"`
}

type targetArgs struct {
	ID   int64  `validate:"required_without=Text"`
	Text string `validate:"required_without=ID"`
}

type reminderArgs struct {
	ID           int64  `validate:"required_without=Text"`
	Text         string `validate:"required_without=ID"`
	ReminderTime string `validate:"required,timestamp"`
}

type focusArgs struct {
	Text string `validate:"notblank"`
}

type journalArgs struct {
	Content string `validate:"notblank"`
}

type breakdownArgs struct {
	Goal string `validate:"notblank"`
}

// DecodeAgentResponse validates every wire action of an agent turn
func DecodeAgentResponse(responseText string, wire []models.WireAction) models.AgentResponse {
	actions := make([]models.Action, 0, len(wire))
	for _, w := range wire {
		actions = append(actions, DecodeAction(w))
	}
	return models.AgentResponse{
		Actions:      actions,
		ResponseText: responseText,
	}
}

// DecodeAction turns a wire action into its typed variant. Payloads that name
// an unknown tool or miss required arguments become models.InvalidAction.
func DecodeAction(w models.WireAction) models.Action {
	name := strings.TrimSpace(w.ToolName)
	args := w.Args
	if args == nil {
		args = map[string]any{}
	}

	invalid := func(err error) models.Action {
		return models.InvalidAction{Name: name, Reason: err.Error()}
	}

	switch models.ToolName(name) {
	case models.ToolAddTask:
		a := addTaskArgs{
			Text:     SanitizeText(argString(args, "text")),
			Priority: argString(args, "priority"),
			Category: SanitizeText(argString(args, "category")),
			DueDate:  argString(args, "dueDate"),
		}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		action := models.AddTask{Text: a.Text, Category: a.Category, Priority: models.DefaultPriority}
		if p, ok := models.ParsePriority(a.Priority); ok {
			action.Priority = p
		}
		if a.DueDate != "" {
			due, _ := models.ParseTimestamp(a.DueDate)
			action.DueDate = &due
		}
		return action

	case models.ToolToggleTask, models.ToolDeleteTask, models.ToolCancelReminder:
		a := targetArgs{
			ID:   argInt64(args, "id"),
			Text: SanitizeText(argString(args, "text")),
		}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		ref := models.TaskRef{ID: a.ID, Text: a.Text}
		switch models.ToolName(name) {
		case models.ToolToggleTask:
			return models.ToggleTask{Ref: ref}
		case models.ToolDeleteTask:
			return models.DeleteTask{Ref: ref}
		default:
			return models.CancelReminder{Ref: ref}
		}

	case models.ToolSetReminder:
		a := reminderArgs{
			ID:           argInt64(args, "id"),
			Text:         SanitizeText(argString(args, "text")),
			ReminderTime: argString(args, "reminderTime"),
		}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		at, _ := models.ParseTimestamp(a.ReminderTime)
		return models.SetReminder{Ref: models.TaskRef{ID: a.ID, Text: a.Text}, ReminderTime: at}

	case models.ToolSetFocus:
		a := focusArgs{Text: SanitizeText(argString(args, "text"))}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		return models.SetFocus{Text: a.Text}

	case models.ToolAddJournalEntry:
		a := journalArgs{Content: SanitizeText(argString(args, "content"))}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		return models.AddJournalEntry{Content: a.Content}

	case models.ToolBreakdownTask:
		a := breakdownArgs{Goal: SanitizeText(argString(args, "goal"))}
		if err := Struct(a); err != nil {
			return invalid(err)
		}
		return models.BreakdownTask{Goal: a.Goal}

	case models.ToolStartTimer:
		return models.StartTimer{}
	case models.ToolPauseTimer:
		return models.PauseTimer{}
	case models.ToolResetTimer:
		return models.ResetTimer{}
	}

	if name == "" {
		return models.InvalidAction{Reason: "missing tool name"}
	}
	return models.InvalidAction{Name: name, Reason: "unknown tool"}
}

// EncodeAction converts a typed action back to its wire form. An invalid
// action keeps only its tool name; its reason is not something the model sent.
func EncodeAction(a models.Action) models.WireAction {
	args := map[string]any{}
	switch v := a.(type) {
	case models.AddTask:
		args["text"] = v.Text
		if v.Priority != "" {
			args["priority"] = string(v.Priority)
		}
		if v.Category != "" {
			args["category"] = v.Category
		}
		if v.DueDate != nil && !v.DueDate.IsZero() {
			args["dueDate"] = v.DueDate.Format(timeLayout)
		}
	case models.SetReminder:
		putRef(args, v.Ref)
		args["reminderTime"] = v.ReminderTime.Format(timeLayout)
	case models.TaskTargeting:
		putRef(args, v.Target())
	case models.SetFocus:
		args["text"] = v.Text
	case models.AddJournalEntry:
		args["content"] = v.Content
	case models.BreakdownTask:
		args["goal"] = v.Goal
	}
	w := models.WireAction{ToolName: string(a.Tool())}
	if len(args) > 0 {
		w.Args = args
	}
	return w
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func putRef(args map[string]any, ref models.TaskRef) {
	if ref.ID != 0 {
		args["id"] = ref.ID
	}
	if ref.Text != "" {
		args["text"] = ref.Text
	}
}

// argString reads a loosely typed argument as a string
func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// argInt64 reads a loosely typed argument as an id. Anything that is not a
// positive whole number yields zero.
func argInt64(args map[string]any, key string) int64 {
	v, ok := args[key]
	if !ok || v == nil {
		return 0
	}
	var n int64
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t >= math.MaxInt64 {
			return 0
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		parsed, err := t.Int64()
		if err != nil {
			return 0
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

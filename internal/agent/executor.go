package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/store"
	"go.uber.org/zap"
)

// Mutator is the slice of the state store the executor drives
type Mutator interface {
	SaveTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	ToggleTask(ctx context.Context, id int64) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	SetReminder(ctx context.Context, id int64, at time.Time) (models.Task, error)
	CancelReminder(ctx context.Context, id int64) (models.Task, error)
	SetFocus(ctx context.Context, focus string)
	UpsertJournalEntry(ctx context.Context, date, content string) (bool, error)
	Today() string
	Pomodoro(ctx context.Context, ev pomodoro.Event) pomodoro.State
}

// Decomposer splits a goal into sub-task texts
type Decomposer interface {
	Decompose(ctx context.Context, goal string) ([]string, error)
}

var _ Mutator = (*store.Store)(nil)

// Outcome reports what happened to one action
type Outcome struct {
	Action  models.Action
	Applied bool
	Summary string
	// Reason explains why an action was not applied
	Reason string
}

// Executor applies resolved actions in order
type Executor struct {
	mutator    Mutator
	decomposer Decomposer
	logger     *zap.Logger
}

// NewExecutor creates an executor. decomposer may be nil, in which case
// breakdownTask actions are skipped.
func NewExecutor(m Mutator, d Decomposer, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{mutator: m, decomposer: d, logger: logger}
}

// Execute runs every action in order. A failing action never stops the batch.
func (e *Executor) Execute(ctx context.Context, actions []models.Action) []Outcome {
	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		out := e.execute(ctx, a)
		tool := ""
		if a != nil {
			tool = string(a.Tool())
		}
		if out.Applied {
			e.logger.Debug("agent_action_applied", zap.String("tool", tool))
		} else {
			e.logger.Info("agent_action_skipped",
				zap.String("tool", tool),
				zap.String("reason", out.Reason),
			)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (e *Executor) execute(ctx context.Context, a models.Action) Outcome {
	out := Outcome{Action: a}
	skip := func(reason string) Outcome {
		out.Reason = reason
		return out
	}
	apply := func(action models.Action) Outcome {
		out.Action = action
		out.Applied = true
		out.Summary = Describe(action)
		return out
	}

	switch v := a.(type) {
	case models.AddTask:
		_, err := e.mutator.SaveTask(ctx, models.TaskInput{
			Text:     models.Ptr(v.Text),
			Priority: models.Ptr(v.Priority),
			Category: models.Ptr(v.Category),
			DueDate:  v.DueDate,
		})
		if err != nil {
			return skip(err.Error())
		}
		return apply(v)

	case models.ToggleTask:
		if !v.Ref.Resolved() {
			return skip("task not resolved")
		}
		task, err := e.mutator.ToggleTask(ctx, v.Ref.ID)
		if err != nil {
			return skip(missing(err))
		}
		return apply(v.WithTarget(labelled(v.Ref, task)))

	case models.DeleteTask:
		if !v.Ref.Resolved() {
			return skip("task not resolved")
		}
		if err := e.mutator.DeleteTask(ctx, v.Ref.ID); err != nil {
			return skip(missing(err))
		}
		return apply(v)

	case models.SetReminder:
		if !v.Ref.Resolved() {
			return skip("task not resolved")
		}
		task, err := e.mutator.SetReminder(ctx, v.Ref.ID, v.ReminderTime.Time)
		if err != nil {
			return skip(missing(err))
		}
		return apply(v.WithTarget(labelled(v.Ref, task)))

	case models.CancelReminder:
		if !v.Ref.Resolved() {
			return skip("task not resolved")
		}
		task, err := e.mutator.CancelReminder(ctx, v.Ref.ID)
		if err != nil {
			return skip(missing(err))
		}
		return apply(v.WithTarget(labelled(v.Ref, task)))

	case models.SetFocus:
		e.mutator.SetFocus(ctx, v.Text)
		return apply(v)

	case models.AddJournalEntry:
		if _, err := e.mutator.UpsertJournalEntry(ctx, e.mutator.Today(), v.Content); err != nil {
			return skip(err.Error())
		}
		return apply(v)

	case models.StartTimer:
		e.mutator.Pomodoro(ctx, pomodoro.EventStart)
		return apply(v)
	case models.PauseTimer:
		e.mutator.Pomodoro(ctx, pomodoro.EventPause)
		return apply(v)
	case models.ResetTimer:
		e.mutator.Pomodoro(ctx, pomodoro.EventReset)
		return apply(v)

	case models.BreakdownTask:
		if e.decomposer == nil {
			return skip("no decomposer configured")
		}
		subTasks, err := e.decomposer.Decompose(ctx, v.Goal)
		if err != nil {
			e.logger.Error("failed_to_break_down_goal", zap.String("goal", v.Goal), zap.Error(err))
			return skip(fmt.Sprintf("breakdown failed: %v", err))
		}
		for _, text := range subTasks {
			if _, err := e.mutator.SaveTask(ctx, models.TaskInput{
				Text:     models.Ptr(text),
				Category: models.Ptr(v.Goal),
			}); err != nil {
				e.logger.Error("failed_to_add_sub_task", zap.String("goal", v.Goal), zap.Error(err))
			}
		}
		return apply(v)

	case models.InvalidAction:
		return skip(v.Reason)

	case nil:
		return skip("malformed action")

	default:
		return skip("unsupported action")
	}
}

// missing turns the store's not-found error into a skip reason; ids that no
// longer exist are a no-op rather than a failure
func missing(err error) string {
	if errors.Is(err, store.ErrTaskNotFound) {
		return "task no longer exists"
	}
	return err.Error()
}

// labelled names the task by its full text, whatever the agent called it
func labelled(ref models.TaskRef, task models.Task) models.TaskRef {
	if task.Text != "" {
		ref.Text = task.Text
	}
	return ref
}

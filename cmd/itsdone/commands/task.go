package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/store"
	"github.com/benvon/itsdone/internal/validation"
	"github.com/spf13/cobra"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(opts),
		newTaskListCmd(opts),
		newTaskToggleCmd(opts),
		newTaskDeleteCmd(opts),
		newTaskRemindCmd(opts),
		newTaskUnremindCmd(opts),
	)
	return cmd
}

func newTaskAddCmd(opts *rootOptions) *cobra.Command {
	var priority, category, due, remind string

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			text := validation.SanitizeText(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("task text is empty")
			}
			in := models.TaskInput{Text: &text}

			if priority != "" {
				p, ok := models.ParsePriority(priority)
				if !ok {
					return fmt.Errorf("invalid priority %q: use High, Medium or Low", priority)
				}
				in.Priority = &p
			}
			if category != "" {
				in.Category = &category
			}
			if due != "" {
				ts, err := models.ParseTimestamp(due)
				if err != nil {
					return fmt.Errorf("invalid --due: %w", err)
				}
				in.DueDate = &ts
			}
			if remind != "" {
				ts, err := models.ParseTimestamp(remind)
				if err != nil {
					return fmt.Errorf("invalid --remind: %w", err)
				}
				in.ReminderTime = &ts
			}

			task, err := a.store.SaveTask(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to add task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %q\n", task.ID, task.Text)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: High, Medium or Low")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&due, "due", "", "Due date, e.g. 2025-03-14T17:00")
	cmd.Flags().StringVar(&remind, "remind", "", "Reminder time, e.g. 2025-03-14T16:30")
	return cmd
}

func newTaskListCmd(opts *rootOptions) *cobra.Command {
	var category, sortMode string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			mode, err := store.ParseSortMode(sortMode)
			if err != nil {
				return err
			}
			renderTasks(cmd.OutOrStdout(), a.store.Tasks(store.ListOptions{Category: category, Sort: mode}))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list tasks in this category")
	cmd.Flags().StringVarP(&sortMode, "sort", "s", "", "Sort: default, dueDateAsc, dueDateDesc, alpha or priority")
	return cmd
}

func newTaskToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Mark a task done, or not done",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.ToggleTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "not done"
			if task.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %q as %s\n", task.Text, state)
			return nil
		}),
	}
}

func newTaskDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.Task(id)
			if err != nil {
				return err
			}
			if err := a.store.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task: %q\n", task.Text)
			return nil
		}),
	}
}

func newTaskRemindCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remind ID TIME",
		Short: "Set a reminder on a task",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			at, err := models.ParseTimestamp(args[1])
			if err != nil {
				return err
			}
			task, err := a.store.SetReminder(cmd.Context(), id, at.Time)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set reminder for %q at %s\n", task.Text, formatTimestamp(task.ReminderTime))
			return nil
		}),
	}
}

func newTaskUnremindCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unremind ID",
		Short: "Cancel a task's reminder",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := a.store.CancelReminder(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled reminder for %q\n", task.Text)
			return nil
		}),
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

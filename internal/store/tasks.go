package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"go.uber.org/zap"
)

// SortMode orders a task listing
type SortMode string

const (
	SortDefault     SortMode = "default"
	SortDueDateAsc  SortMode = "dueDateAsc"
	SortDueDateDesc SortMode = "dueDateDesc"
	SortAlpha       SortMode = "alpha"
	SortPriority    SortMode = "priority"
)

// ParseSortMode validates a sort mode name. Empty means default.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortDefault:
		return SortDefault, nil
	case SortDueDateAsc, SortDueDateDesc, SortAlpha, SortPriority:
		return SortMode(s), nil
	default:
		return "", fmt.Errorf("unknown sort mode: %q", s)
	}
}

// AllCategories disables category filtering
const AllCategories = "all"

// ListOptions filters and orders Tasks
type ListOptions struct {
	Category string
	Sort     SortMode
}

// Tasks returns a filtered, sorted copy of the task collection
func (s *Store) Tasks(opts ListOptions) []models.Task {
	s.mu.RLock()
	tasks := cloneTasks(s.tasks)
	s.mu.RUnlock()

	if opts.Category != "" && opts.Category != AllCategories {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Category == opts.Category {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	SortTasks(tasks, opts.Sort)
	return tasks
}

// SortTasks orders tasks in place. Default keeps insertion order. Tasks
// without a due date sort last in both due-date orders.
func SortTasks(tasks []models.Task, mode SortMode) {
	switch mode {
	case SortDueDateAsc, SortDueDateDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			if !a.HasDueDate() || !b.HasDueDate() {
				return a.HasDueDate() && !b.HasDueDate()
			}
			if mode == SortDueDateAsc {
				return a.DueDate.Before(b.DueDate.Time)
			}
			return a.DueDate.After(b.DueDate.Time)
		})
	case SortAlpha:
		sort.SliceStable(tasks, func(i, j int) bool {
			return strings.ToLower(tasks[i].Text) < strings.ToLower(tasks[j].Text)
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].EffectivePriority().Rank() < tasks[j].EffectivePriority().Rank()
		})
	}
}

// Categories returns the distinct non-empty task categories in first-seen order
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.tasks {
		if t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}

// Task returns a task by id
func (s *Store) Task(id int64) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfTask(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	return cloneTask(s.tasks[i]), nil
}

func (s *Store) indexOfTask(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// SaveTask creates a task when in.ID is zero and merges in into the existing
// task otherwise. New tasks start incomplete with Medium priority before the
// given fields are applied.
func (s *Store) SaveTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	s.mu.Lock()
	var saved models.Task
	if in.ID == 0 {
		task := models.Task{
			ID:       s.nextID(),
			Priority: models.DefaultPriority,
		}
		in.Apply(&task)
		s.tasks = append(s.tasks, task)
		saved = task
		s.logger.Debug("task_created", zap.Int64("task_id", task.ID))
	} else {
		i := s.indexOfTask(in.ID)
		if i < 0 {
			s.mu.Unlock()
			return models.Task{}, ErrTaskNotFound
		}
		in.Apply(&s.tasks[i])
		saved = s.tasks[i]
		s.logger.Debug("task_updated", zap.Int64("task_id", in.ID))
	}
	tasks := s.commitTasks(ctx)
	s.mu.Unlock()

	s.notifyTasks(tasks)
	return cloneTask(saved), nil
}

// ToggleTask flips the completed flag
func (s *Store) ToggleTask(ctx context.Context, id int64) (models.Task, error) {
	return s.mutateTask(ctx, id, func(t *models.Task) {
		t.Completed = !t.Completed
	})
}

// SetReminder sets the reminder time of a task
func (s *Store) SetReminder(ctx context.Context, id int64, at time.Time) (models.Task, error) {
	return s.mutateTask(ctx, id, func(t *models.Task) {
		t.ReminderTime = models.NewTimestamp(at)
	})
}

// CancelReminder clears the reminder time of a task
func (s *Store) CancelReminder(ctx context.Context, id int64) (models.Task, error) {
	return s.mutateTask(ctx, id, func(t *models.Task) {
		t.ReminderTime = nil
	})
}

// DeleteTask removes a task
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.indexOfTask(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	tasks := s.commitTasks(ctx)
	s.mu.Unlock()

	s.logger.Debug("task_deleted", zap.Int64("task_id", id))
	s.notifyTasks(tasks)
	return nil
}

func (s *Store) mutateTask(ctx context.Context, id int64, fn func(*models.Task)) (models.Task, error) {
	s.mu.Lock()
	i := s.indexOfTask(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Task{}, ErrTaskNotFound
	}
	fn(&s.tasks[i])
	saved := cloneTask(s.tasks[i])
	tasks := s.commitTasks(ctx)
	s.mu.Unlock()

	s.notifyTasks(tasks)
	return saved, nil
}

// commitTasks persists the collection and returns a copy for listeners. Caller holds s.mu.
func (s *Store) commitTasks(ctx context.Context) []models.Task {
	s.persistJSON(ctx, KeyTasks, orEmpty(s.tasks))
	return cloneTasks(s.tasks)
}

// Package store holds the dashboard's canonical state and persists every
// change to a database.KV backend. In-memory state stays authoritative when
// persistence fails; failures are logged and the session carries on.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benvon/itsdone/internal/database"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/pomodoro"
	"go.uber.org/zap"
)

// Storage keys, one record per collection
const (
	KeyTasks            = "its_done_tasks"
	KeyNotes            = "its_done_notes"
	KeyFocus            = "its_done_daily_focus"
	KeyPomodoroSettings = "its_done_pomodoro_settings"
	KeyJournalEntries   = "its_done_journal_entries"
	KeyResearchMode     = "its_done_research_mode"
	KeyPinnedItems      = "its_done_pinned_items"
	KeyAssistantHistory = "its_done_ai_chat_history"
	KeyAgentHistory     = "its_done_feel_good_agent_history"
)

// DefaultNotes seeds the notes pad when nothing was saved yet
const DefaultNotes = "Brainstorming session ideas:\n- Theming based on user mood.\n- Neo-brutalist UI components."

// DefaultPersistTimeout bounds a single write to the backend
const DefaultPersistTimeout = 5 * time.Second

var (
	// ErrTaskNotFound is returned when no task has the given id
	ErrTaskNotFound = errors.New("task not found")
	// ErrPinNotFound is returned when no pinned item has the given id
	ErrPinNotFound = errors.New("pinned item not found")
)

// TasksListener is called with a copy of the task collection after it changes
type TasksListener func(tasks []models.Task)

// PomodoroListener is called when a countdown runs out
type PomodoroListener func(completed pomodoro.Mode, state pomodoro.State)

// Snapshot is a consistent copy of the whole state
type Snapshot struct {
	Tasks             []models.Task         `json:"tasks"`
	Notes             string                `json:"notes"`
	Focus             string                `json:"focus"`
	JournalEntries    []models.JournalEntry `json:"journalEntries"`
	PinnedItems       []models.PinnedItem   `json:"pinnedItems"`
	Pomodoro          pomodoro.State        `json:"pomodoro"`
	PomodoroRemaining int                   `json:"pomodoroRemainingSeconds"`
	ResearchMode      bool                  `json:"researchMode"`
}

// Store is the state store. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	kv     database.KV
	logger *zap.Logger
	now    func() time.Time

	lastID           int64
	tasks            []models.Task
	notes            string
	focus            string
	journal          []models.JournalEntry
	pinned           []models.PinnedItem
	timer            *pomodoro.Timer
	researchMode     bool
	assistantHistory []models.ChatMessage
	agentHistory     []models.ChatMessage

	listenerMu        sync.RWMutex
	taskListeners     []TasksListener
	pomodoroListeners []PomodoroListener
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for ids and journal dates
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store with default state. Call Load to read persisted records.
func New(kv database.KV, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:               kv,
		logger:           logger,
		now:              time.Now,
		notes:            DefaultNotes,
		timer:            pomodoro.NewTimer(pomodoro.DefaultDurations()),
		assistantHistory: []models.ChatMessage{{Sender: models.SenderAI, Text: models.AssistantGreeting}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every record from the backend. Missing records keep their
// defaults; unreadable ones are logged and skipped.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadJSON(ctx, KeyTasks, &s.tasks)
	if v, ok := s.loadRaw(ctx, KeyNotes); ok {
		s.notes = v
	}
	if v, ok := s.loadRaw(ctx, KeyFocus); ok {
		s.focus = v
	}
	var durations pomodoro.Durations
	if s.loadJSON(ctx, KeyPomodoroSettings, &durations) {
		if err := durations.Validate(); err != nil {
			s.logger.Warn("ignoring_invalid_pomodoro_settings", zap.Error(err))
		} else {
			s.timer.SetDurations(durations)
		}
	}
	s.loadJSON(ctx, KeyJournalEntries, &s.journal)
	s.loadJSON(ctx, KeyResearchMode, &s.researchMode)
	s.loadJSON(ctx, KeyPinnedItems, &s.pinned)
	s.loadJSON(ctx, KeyAssistantHistory, &s.assistantHistory)
	s.loadJSON(ctx, KeyAgentHistory, &s.agentHistory)

	for _, t := range s.tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	for _, p := range s.pinned {
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
	}

	s.logger.Info("state_loaded",
		zap.Int("tasks", len(s.tasks)),
		zap.Int("journal_entries", len(s.journal)),
		zap.Int("pinned_items", len(s.pinned)),
	)
}

func (s *Store) loadRaw(ctx context.Context, key string) (string, bool) {
	v, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("failed_to_load_state_record", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, found
}

func (s *Store) loadJSON(ctx context.Context, key string, dst any) bool {
	v, ok := s.loadRaw(ctx, key)
	if !ok || v == "" {
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		s.logger.Error("failed_to_decode_state_record", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// persistJSON writes one record. Callers hold s.mu so writes land in mutation order.
func (s *Store) persistJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed_to_encode_state_record", zap.String("key", key), zap.Error(err))
		return
	}
	s.persistRaw(ctx, key, string(data))
}

func (s *Store) persistRaw(ctx context.Context, key, value string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultPersistTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Error("failed_to_persist_state_record", zap.String("key", key), zap.Error(err))
	}
}

// nextID returns a millisecond clock value strictly above every id issued so far
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tasks:             cloneTasks(s.tasks),
		Notes:             s.notes,
		Focus:             s.focus,
		JournalEntries:    append([]models.JournalEntry(nil), s.journal...),
		PinnedItems:       clonePinned(s.pinned),
		Pomodoro:          s.timer.State(),
		PomodoroRemaining: int(s.timer.Remaining().Seconds()),
		ResearchMode:      s.researchMode,
	}
}

// OnTasksChanged registers fn to run after every task mutation
func (s *Store) OnTasksChanged(fn TasksListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.taskListeners = append(s.taskListeners, fn)
}

// OnPomodoroComplete registers fn to run when a countdown runs out
func (s *Store) OnPomodoroComplete(fn PomodoroListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.pomodoroListeners = append(s.pomodoroListeners, fn)
}

func (s *Store) notifyTasks(tasks []models.Task) {
	s.listenerMu.RLock()
	listeners := append([]TasksListener(nil), s.taskListeners...)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(cloneTasks(tasks))
	}
}

func (s *Store) notifyPomodoro(completed pomodoro.Mode, st pomodoro.State) {
	s.listenerMu.RLock()
	listeners := append([]PomodoroListener(nil), s.pomodoroListeners...)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(completed, st)
	}
}

// orEmpty keeps empty collections encoding as [] rather than null
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func cloneTasks(in []models.Task) []models.Task {
	out := make([]models.Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t models.Task) models.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.ReminderTime != nil {
		r := *t.ReminderTime
		t.ReminderTime = &r
	}
	return t
}

func clonePinned(in []models.PinnedItem) []models.PinnedItem {
	out := make([]models.PinnedItem, len(in))
	for i, p := range in {
		p.Sources = append([]models.Source(nil), p.Sources...)
		out[i] = p
	}
	return out
}

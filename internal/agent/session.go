package agent

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/benvon/itsdone/internal/telemetry"
	"github.com/benvon/itsdone/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// ErrTurnInFlight is returned when a turn is submitted while another runs
	ErrTurnInFlight = errors.New("an agent turn is already in progress")
	// ErrEmptyPrompt is returned for blank submissions
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// ContextJournalEntries is how many journal entries the agent sees
const ContextJournalEntries = 3

// Turner asks the model for the next agent turn
type Turner interface {
	AgentTurn(ctx context.Context, prompt string, state ai.AgentContext) (models.AgentResponse, error)
}

// SessionStore is what a session reads and records
type SessionStore interface {
	Mutator
	Tasks(opts store.ListOptions) []models.Task
	Notes() string
	Focus() string
	RecentJournalEntries(n int) []models.JournalEntry
	AgentHistory() []models.ChatMessage
	AppendAgentMessages(ctx context.Context, msgs ...models.ChatMessage)
	ClearAgentHistory(ctx context.Context)
}

var _ SessionStore = (*store.Store)(nil)

// TurnResult is the outcome of one agent turn
type TurnResult struct {
	Reply     string
	Outcomes  []Outcome
	Duplicate *models.AddTask
	Ambiguous []Ambiguity
	// Err is the gateway error behind a fallback reply, if any
	Err error
}

// Session runs agent turns one at a time and keeps the conversation
type Session struct {
	store    SessionStore
	turner   Turner
	resolver *Resolver
	executor *Executor
	logger   *zap.Logger
	busy     atomic.Bool
}

// SessionConfig configures a Session
type SessionConfig struct {
	Store      SessionStore
	Turner     Turner
	Decomposer Decomposer
	Matcher    Matcher
	Logger     *zap.Logger
}

// NewSession creates a session
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		store:    cfg.Store,
		turner:   cfg.Turner,
		resolver: NewResolver(cfg.Matcher),
		executor: NewExecutor(cfg.Store, cfg.Decomposer, logger),
		logger:   logger,
	}
}

// Busy reports whether a turn is in flight
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Turn sends prompt to the agent, applies the actions it proposes and
// records both sides of the exchange in the agent history
func (s *Session) Turn(ctx context.Context, prompt string) (*TurnResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Info("agent_turn_rejected_in_flight")
		return nil, ErrTurnInFlight
	}
	defer s.busy.Store(false)

	ctx, span := telemetry.Tracer().Start(ctx, "agent.turn")
	defer span.End()

	state := ai.AgentContext{
		Tasks:          s.store.Tasks(store.ListOptions{}),
		Notes:          s.store.Notes(),
		Focus:          s.store.Focus(),
		JournalEntries: s.store.RecentJournalEntries(ContextJournalEntries),
	}

	resp, err := s.turner.AgentTurn(ctx, prompt, state)
	result := &TurnResult{Err: err}
	if err != nil {
		s.logger.Error("agent_turn_failed", zap.Error(err))
	}

	res := s.resolver.Resolve(resp, state.Tasks)
	if res.Duplicate != nil {
		s.logger.Info("agent_duplicate_add_blocked", zap.String("text", res.Duplicate.Text))
	}
	for _, a := range res.Ambiguous {
		s.logger.Warn("agent_ambiguous_task_reference",
			zap.String("tool", string(a.Tool)),
			zap.String("text", a.Text),
			zap.Int64s("candidates", a.Candidates),
		)
	}

	result.Outcomes = s.executor.Execute(ctx, res.Actions)
	result.Reply = res.Response.ResponseText
	span.SetAttributes(
		attribute.Int("agent.actions", len(res.Actions)),
		attribute.Int("agent.ambiguous", len(res.Ambiguous)),
		attribute.Bool("agent.duplicate_blocked", res.Duplicate != nil),
		attribute.Bool("agent.fallback", err != nil),
	)
	result.Duplicate = res.Duplicate
	result.Ambiguous = res.Ambiguous

	wire := make([]models.WireAction, 0, len(res.Actions))
	for _, a := range res.Actions {
		wire = append(wire, validation.EncodeAction(a))
	}
	if len(wire) == 0 {
		wire = nil
	}
	s.store.AppendAgentMessages(ctx,
		models.ChatMessage{Sender: models.SenderUser, Text: prompt},
		models.ChatMessage{Sender: models.SenderAI, Text: result.Reply, Actions: wire},
	)

	return result, nil
}

// History returns the persisted conversation
func (s *Session) History() []models.ChatMessage {
	return s.store.AgentHistory()
}

// Clear empties the conversation
func (s *Session) Clear(ctx context.Context) {
	s.store.ClearAgentHistory(ctx)
}

// Summaries returns the descriptions of the applied outcomes
func (r *TurnResult) Summaries() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Applied {
			out = append(out, o.Summary)
		}
	}
	return out
}

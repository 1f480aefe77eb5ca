package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
)

// mockTurner is a mock implementation of Turner
type mockTurner struct {
	agentTurnFunc func(ctx context.Context, prompt string, state ai.AgentContext) (models.AgentResponse, error)
}

func (m *mockTurner) AgentTurn(ctx context.Context, prompt string, state ai.AgentContext) (models.AgentResponse, error) {
	if m.agentTurnFunc != nil {
		return m.agentTurnFunc(ctx, prompt, state)
	}
	return models.AgentResponse{ResponseText: "Okay!"}, nil
}

var _ Turner = (*mockTurner)(nil)

func TestSession_TurnAppliesActionsAndRecordsHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	seedTask(t, s, "Buy milk")
	s.SetFocus(ctx, "Errands")

	var seen ai.AgentContext
	session := NewSession(SessionConfig{
		Store: s,
		Turner: &mockTurner{agentTurnFunc: func(_ context.Context, prompt string, state ai.AgentContext) (models.AgentResponse, error) {
			if prompt != "finish milk and add bread" {
				t.Errorf("Expected trimmed prompt, got %q", prompt)
			}
			seen = state
			return models.AgentResponse{
				ResponseText: "All set!",
				Actions: []models.Action{
					models.ToggleTask{Ref: models.TaskRef{Text: "milk"}},
					models.AddTask{Text: "Buy bread", Priority: models.PriorityLow},
				},
			}, nil
		}},
		Decomposer: &mockDecomposer{},
	})

	result, err := session.Turn(ctx, "  finish milk and add bread  ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Reply != "All set!" {
		t.Errorf("Expected reply 'All set!', got %q", result.Reply)
	}
	if seen.Focus != "Errands" || len(seen.Tasks) != 1 {
		t.Errorf("Expected dashboard state in agent context, got %+v", seen)
	}

	summaries := result.Summaries()
	if len(summaries) != 2 || summaries[0] != `Toggled task: "Buy milk"` || summaries[1] != `Added task: "Buy bread"` {
		t.Errorf("Unexpected summaries: %v", summaries)
	}

	tasks := s.Tasks(store.ListOptions{})
	if len(tasks) != 2 || !tasks[0].Completed {
		t.Errorf("Expected milk completed and bread added, got %+v", tasks)
	}

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history messages, got %d", len(history))
	}
	if history[0].Sender != models.SenderUser || history[0].Text != "finish milk and add bread" {
		t.Errorf("Unexpected user message: %+v", history[0])
	}
	if history[1].Sender != models.SenderAI || len(history[1].Actions) != 2 {
		t.Errorf("Expected ai message with 2 actions, got %+v", history[1])
	}
	if id, ok := history[1].Actions[0].Args["id"].(int64); !ok || id != tasks[0].ID {
		t.Errorf("Expected recorded toggle to carry the resolved id, got %v", history[1].Actions[0].Args)
	}
}

func TestSession_DuplicateAddIsBlocked(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedTask(t, s, "Buy milk")

	session := NewSession(SessionConfig{
		Store: s,
		Turner: &mockTurner{agentTurnFunc: func(context.Context, string, ai.AgentContext) (models.AgentResponse, error) {
			return models.AgentResponse{
				ResponseText: "Added it!",
				Actions:      []models.Action{models.AddTask{Text: "buy MILK"}},
			}, nil
		}},
	})

	result, err := session.Turn(context.Background(), "add buy milk")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Reply != models.DuplicateTaskResponse {
		t.Errorf("Expected duplicate response, got %q", result.Reply)
	}
	if result.Duplicate == nil {
		t.Error("Expected duplicate to be reported")
	}
	if n := len(s.Tasks(store.ListOptions{})); n != 1 {
		t.Errorf("Expected 1 task, got %d", n)
	}
}

func TestSession_FallbackStillRecorded(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	errDown := errors.New("provider down")
	session := NewSession(SessionConfig{
		Store: s,
		Turner: &mockTurner{agentTurnFunc: func(context.Context, string, ai.AgentContext) (models.AgentResponse, error) {
			return models.AgentResponse{ResponseText: ai.FallbackAgent}, errDown
		}},
	})

	result, err := session.Turn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Expected turn to succeed with a fallback, got %v", err)
	}
	if !errors.Is(result.Err, errDown) {
		t.Errorf("Expected gateway error on result, got %v", result.Err)
	}
	if result.Reply != ai.FallbackAgent || len(result.Outcomes) != 0 {
		t.Errorf("Expected fallback reply and no outcomes, got %+v", result)
	}
	history := session.History()
	if len(history) != 2 || history[1].Text != ai.FallbackAgent || history[1].Actions != nil {
		t.Errorf("Expected fallback recorded without actions, got %+v", history)
	}
}

func TestSession_RejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	session := NewSession(SessionConfig{Store: newTestStore(t), Turner: &mockTurner{}})
	if _, err := session.Turn(context.Background(), "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Expected ErrEmptyPrompt, got %v", err)
	}
	if n := len(session.History()); n != 0 {
		t.Errorf("Expected no history, got %d messages", n)
	}
}

func TestSession_OneTurnInFlight(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	session := NewSession(SessionConfig{
		Store: newTestStore(t),
		Turner: &mockTurner{agentTurnFunc: func(context.Context, string, ai.AgentContext) (models.AgentResponse, error) {
			close(entered)
			<-release
			return models.AgentResponse{ResponseText: "done"}, nil
		}},
	})

	done := make(chan error, 1)
	go func() {
		_, err := session.Turn(context.Background(), "first")
		done <- err
	}()

	<-entered
	if !session.Busy() {
		t.Error("Expected session to be busy")
	}
	if _, err := session.Turn(context.Background(), "second"); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("Expected ErrTurnInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Unexpected error from first turn: %v", err)
	}
	if session.Busy() {
		t.Error("Expected session to be idle after the turn")
	}
	if n := len(session.History()); n != 2 {
		t.Errorf("Expected only the first exchange in history, got %d messages", n)
	}
}

func TestSession_Clear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	session := NewSession(SessionConfig{Store: s, Turner: &mockTurner{}})
	if _, err := session.Turn(context.Background(), "hi"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	session.Clear(context.Background())
	if n := len(session.History()); n != 0 {
		t.Errorf("Expected empty history after clear, got %d messages", n)
	}
}

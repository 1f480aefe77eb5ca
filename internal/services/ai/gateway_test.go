package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/itsdone/internal/models"
)

type mockProvider struct {
	summarizeFunc     func(ctx context.Context, notes string) (string, error)
	journalPromptFunc func(ctx context.Context) (string, error)
	chatFunc          func(ctx context.Context, message string) (string, error)
	decomposeFunc     func(ctx context.Context, goal string) ([]string, error)
	agentTurnFunc     func(ctx context.Context, prompt string, state AgentContext) (*AgentPayload, error)
	researchFunc      func(ctx context.Context, prompt string) (*models.ResearchResult, error)
}

var _ Provider = (*mockProvider)(nil)

func (m *mockProvider) Summarize(ctx context.Context, notes string) (string, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, notes)
	}
	return "summary", nil
}

func (m *mockProvider) JournalPrompt(ctx context.Context) (string, error) {
	if m.journalPromptFunc != nil {
		return m.journalPromptFunc(ctx)
	}
	return "What made you smile today?", nil
}

func (m *mockProvider) Chat(ctx context.Context, message string) (string, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, message)
	}
	return "reply", nil
}

func (m *mockProvider) Decompose(ctx context.Context, goal string) ([]string, error) {
	if m.decomposeFunc != nil {
		return m.decomposeFunc(ctx, goal)
	}
	return []string{"one", "two"}, nil
}

func (m *mockProvider) AgentTurn(ctx context.Context, prompt string, state AgentContext) (*AgentPayload, error) {
	if m.agentTurnFunc != nil {
		return m.agentTurnFunc(ctx, prompt, state)
	}
	return &AgentPayload{ResponseText: "ok"}, nil
}

func (m *mockProvider) Research(ctx context.Context, prompt string) (*models.ResearchResult, error) {
	if m.researchFunc != nil {
		return m.researchFunc(ctx, prompt)
	}
	return &models.ResearchResult{Text: "answer"}, nil
}

var errBoom = errors.New("boom")

func TestGatewaySummarize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		notes    string
		provider *mockProvider
		want     string
		wantErr  error
	}{
		{
			name:     "short notes are refused without a call",
			notes:    "  too short  ",
			provider: &mockProvider{summarizeFunc: func(context.Context, string) (string, error) { return "provider was called", nil }},
			want:     FallbackNotesTooShort,
			wantErr:  ErrNotesTooShort,
		},
		{
			name:     "success",
			notes:    "Met with the design team about the launch plan.",
			provider: &mockProvider{},
			want:     "summary",
		},
		{
			name:     "failure falls back",
			notes:    "Met with the design team about the launch plan.",
			provider: &mockProvider{summarizeFunc: func(context.Context, string) (string, error) { return "", errBoom }},
			want:     FallbackSummary,
			wantErr:  errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewGateway(tt.provider, nil)
			got, err := g.Summarize(context.Background(), tt.notes)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGatewayJournalPromptStripsQuotes(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{journalPromptFunc: func(context.Context) (string, error) {
		return `"What are you grateful for?"`, nil
	}}, nil)
	got, err := g.JournalPrompt(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "What are you grateful for?" {
		t.Errorf("Expected unquoted prompt, got %q", got)
	}

	g = NewGateway(&mockProvider{journalPromptFunc: func(context.Context) (string, error) { return "", errBoom }}, nil)
	got, _ = g.JournalPrompt(context.Background())
	if got != FallbackJournalPrompt {
		t.Errorf("Expected fallback, got %q", got)
	}
}

func TestGatewayChat(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{chatFunc: func(_ context.Context, msg string) (string, error) {
		return "echo: " + msg, nil
	}}, nil)
	got, err := g.Chat(context.Background(), "hi")
	if err != nil || got != "echo: hi" {
		t.Errorf("Expected echo reply, got %q (%v)", got, err)
	}

	g = NewGateway(&mockProvider{chatFunc: func(context.Context, string) (string, error) { return "", errBoom }}, nil)
	got, err = g.Chat(context.Background(), "hi")
	if got != FallbackChat || !errors.Is(err, errBoom) {
		t.Errorf("Expected fallback and error, got %q (%v)", got, err)
	}
}

func TestGatewayDecompose(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{decomposeFunc: func(context.Context, string) ([]string, error) {
		return []string{" Outline ", "", "Draft"}, nil
	}}, nil)
	got, err := g.Decompose(context.Background(), "Write a book")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "Outline" || got[1] != "Draft" {
		t.Errorf("Expected [Outline Draft], got %v", got)
	}

	g = NewGateway(&mockProvider{decomposeFunc: func(context.Context, string) ([]string, error) { return nil, errBoom }}, nil)
	if _, err := g.Decompose(context.Background(), "x"); !errors.Is(err, errBoom) {
		t.Errorf("Expected wrapped provider error, got %v", err)
	}
}

func TestGatewayAgentTurn(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{agentTurnFunc: func(_ context.Context, _ string, state AgentContext) (*AgentPayload, error) {
		if state.Focus != "Ship it" {
			t.Errorf("Expected focus to reach the provider, got %q", state.Focus)
		}
		return &AgentPayload{
			ResponseText: "Done!",
			Actions: []models.WireAction{
				{ToolName: "addTask", Args: map[string]any{"text": "Buy milk"}},
				{ToolName: "flyToMoon"},
			},
		}, nil
	}}, nil)

	resp, err := g.AgentTurn(context.Background(), "add milk", AgentContext{Focus: "Ship it"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.ResponseText != "Done!" {
		t.Errorf("Expected response text to pass through, got %q", resp.ResponseText)
	}
	if len(resp.Actions) != 2 {
		t.Fatalf("Expected 2 actions, got %d", len(resp.Actions))
	}
	if _, ok := resp.Actions[0].(models.AddTask); !ok {
		t.Errorf("Expected AddTask, got %T", resp.Actions[0])
	}
	if _, ok := resp.Actions[1].(models.InvalidAction); !ok {
		t.Errorf("Expected InvalidAction, got %T", resp.Actions[1])
	}
}

func TestGatewayAgentTurnFallback(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{agentTurnFunc: func(context.Context, string, AgentContext) (*AgentPayload, error) {
		return nil, errBoom
	}}, nil)
	resp, err := g.AgentTurn(context.Background(), "hello", AgentContext{})
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected provider error, got %v", err)
	}
	if resp.ResponseText != FallbackAgent || len(resp.Actions) != 0 {
		t.Errorf("Expected fallback with no actions, got %+v", resp)
	}
}

func TestGatewayResearch(t *testing.T) {
	t.Parallel()

	g := NewGateway(&mockProvider{}, nil)
	res, err := g.Research(context.Background(), "why is the sky blue")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Text != "answer" || res.Sources == nil {
		t.Errorf("Expected answer with non-nil sources, got %+v", res)
	}

	g = NewGateway(&mockProvider{researchFunc: func(context.Context, string) (*models.ResearchResult, error) { return nil, errBoom }}, nil)
	res, _ = g.Research(context.Background(), "x")
	if res.Text != FallbackResearch || len(res.Sources) != 0 {
		t.Errorf("Expected fallback result, got %+v", res)
	}
}

func TestGatewayWithoutProvider(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil, nil)
	if g.Available() {
		t.Error("Expected gateway without provider to be unavailable")
	}
	if got, err := g.Chat(context.Background(), "hi"); got != FallbackChat || !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected chat fallback, got %q (%v)", got, err)
	}
	if resp, err := g.AgentTurn(context.Background(), "hi", AgentContext{}); resp.ResponseText != FallbackAgent || !errors.Is(err, ErrNoProvider) {
		t.Errorf("Expected agent fallback, got %q (%v)", resp.ResponseText, err)
	}
}

func TestDeepDivePrompt(t *testing.T) {
	t.Parallel()

	want := `Provide a comprehensive deep dive and detailed report on the following topic: "solar panels"`
	if got := DeepDivePrompt("solar panels"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestExportToNotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result models.ResearchResult
		want   string
	}{
		{
			name:   "without sources",
			result: models.ResearchResult{Text: "It scatters light."},
			want:   "\n\n---\n\n## Research: sky\n\nIt scatters light.",
		},
		{
			name: "sources fall back to the uri",
			result: models.ResearchResult{
				Text: "It scatters light.",
				Sources: []models.Source{
					{URI: "https://a.example", Title: "Rayleigh"},
					{URI: "https://b.example"},
				},
			},
			want: "\n\n---\n\n## Research: sky\n\nIt scatters light.\n\n**Sources:**\n" +
				"* [Rayleigh](https://a.example)\n* [https://b.example](https://b.example)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExportToNotes("sky", tt.result); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/validation"
	"go.uber.org/zap"
)

// Fallback texts returned in place of a model answer when a call fails
const (
	FallbackSummary       = "Failed to get summary. Please check your API key and try again."
	FallbackNotesTooShort = "Please write a bit more before summarizing."
	FallbackJournalPrompt = "Could not get a prompt. Try again?"
	FallbackChat          = "Sorry, I encountered an error. Please ensure your API key is set up correctly."
	FallbackAgent         = "Sorry, I'm having a little trouble connecting right now. Please try again in a moment."
	FallbackResearch      = "Sorry, I couldn't complete that search. Please check your API key and network connection."
)

// MinSummarizeLength is the shortest note text worth summarizing
const MinSummarizeLength = 20

// ErrNoProvider is returned when no AI provider is configured
var ErrNoProvider = errors.New("no AI provider configured")

// Gateway is the single entry point to the language model. Every operation
// turns failure into a fixed fallback result and returns the error alongside
// it; none of them touch dashboard state.
type Gateway struct {
	provider Provider
	logger   *zap.Logger
}

// NewGateway wraps provider. A nil provider makes every call fall back.
func NewGateway(provider Provider, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{provider: provider, logger: logger}
}

// Available reports whether a provider is configured
func (g *Gateway) Available() bool {
	return g.provider != nil
}

func (g *Gateway) fail(operation string, err error) {
	g.logger.Error("llm_operation_failed",
		zap.String("operation", operation),
		zap.Bool("rate_limited", IsRateLimitError(err)),
		zap.Bool("quota_exceeded", IsQuotaError(err)),
		zap.Error(err),
	)
}

// Summarize condenses notes
func (g *Gateway) Summarize(ctx context.Context, notes string) (string, error) {
	if len(strings.TrimSpace(notes)) < MinSummarizeLength {
		return FallbackNotesTooShort, ErrNotesTooShort
	}
	if g.provider == nil {
		return FallbackSummary, ErrNoProvider
	}
	summary, err := g.provider.Summarize(ctx, notes)
	if err != nil {
		g.fail("summarize", err)
		return FallbackSummary, err
	}
	return summary, nil
}

// JournalPrompt returns a reflective question with any quote marks removed
func (g *Gateway) JournalPrompt(ctx context.Context) (string, error) {
	if g.provider == nil {
		return FallbackJournalPrompt, ErrNoProvider
	}
	prompt, err := g.provider.JournalPrompt(ctx)
	if err != nil {
		g.fail("journal_prompt", err)
		return FallbackJournalPrompt, err
	}
	return strings.TrimSpace(strings.ReplaceAll(prompt, `"`, "")), nil
}

// Chat answers one assistant message
func (g *Gateway) Chat(ctx context.Context, message string) (string, error) {
	if g.provider == nil {
		return FallbackChat, ErrNoProvider
	}
	reply, err := g.provider.Chat(ctx, message)
	if err != nil {
		g.fail("chat", err)
		return FallbackChat, err
	}
	return reply, nil
}

// Decompose splits a goal into non-empty sub-task texts
func (g *Gateway) Decompose(ctx context.Context, goal string) ([]string, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}
	items, err := g.provider.Decompose(ctx, goal)
	if err != nil {
		g.fail("decompose", err)
		return nil, fmt.Errorf("failed to break down goal into sub-tasks: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// AgentTurn asks the agent for its next turn and validates the actions it
// proposes. On failure the response is the fallback text with no actions.
func (g *Gateway) AgentTurn(ctx context.Context, prompt string, state AgentContext) (models.AgentResponse, error) {
	fallback := models.AgentResponse{ResponseText: FallbackAgent}
	if g.provider == nil {
		return fallback, ErrNoProvider
	}
	payload, err := g.provider.AgentTurn(ctx, prompt, state)
	if err != nil {
		g.fail("agent_turn", err)
		return fallback, err
	}
	resp := validation.DecodeAgentResponse(payload.ResponseText, payload.Actions)
	for _, a := range resp.Actions {
		if invalid, ok := a.(models.InvalidAction); ok {
			g.logger.Warn("agent_action_invalid",
				zap.String("tool", invalid.Name),
				zap.String("reason", invalid.Reason),
			)
		}
	}
	return resp, nil
}

// Research answers a question. On failure the result is the fallback text
// with no sources.
func (g *Gateway) Research(ctx context.Context, prompt string) (models.ResearchResult, error) {
	fallback := models.ResearchResult{Text: FallbackResearch, Sources: []models.Source{}}
	if g.provider == nil {
		return fallback, ErrNoProvider
	}
	result, err := g.provider.Research(ctx, prompt)
	if err != nil {
		g.fail("research", err)
		return fallback, err
	}
	if result.Sources == nil {
		result.Sources = []models.Source{}
	}
	return *result, nil
}

// DeepDivePrompt expands a research prompt into a request for a full report
func DeepDivePrompt(prompt string) string {
	return fmt.Sprintf("Provide a comprehensive deep dive and detailed report on the following topic: \"%s\"", prompt)
}

// ExportToNotes formats a research result as a markdown section to append to the notes
func ExportToNotes(prompt string, result models.ResearchResult) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## Research: ")
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(result.Text)
	if len(result.Sources) > 0 {
		b.WriteString("\n\n**Sources:**")
		for _, s := range result.Sources {
			title := s.Title
			if title == "" {
				title = s.URI
			}
			fmt.Fprintf(&b, "\n* [%s](%s)", title, s.URI)
		}
	}
	return b.String()
}

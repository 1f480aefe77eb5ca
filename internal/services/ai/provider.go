package ai

import (
	"context"
	"sort"

	"github.com/benvon/itsdone/internal/models"
	"go.uber.org/zap"
)

// Provider is the interface for LLM backends. Implementations return raw
// results; fallbacks and validation happen in Gateway.
type Provider interface {
	// Summarize condenses free-form notes
	Summarize(ctx context.Context, notes string) (string, error)

	// JournalPrompt returns one short self-reflection question
	JournalPrompt(ctx context.Context) (string, error)

	// Chat answers a single message from the assistant widget
	Chat(ctx context.Context, message string) (string, error)

	// Decompose splits a goal into sub-task texts
	Decompose(ctx context.Context, goal string) ([]string, error)

	// AgentTurn asks the agent what to say and which tools to call
	AgentTurn(ctx context.Context, prompt string, state AgentContext) (*AgentPayload, error)

	// Research answers a question, with web sources when the backend can ground
	Research(ctx context.Context, prompt string) (*models.ResearchResult, error)
}

// AgentPayload is an agent turn exactly as the model produced it
type AgentPayload struct {
	Actions      []models.WireAction `json:"actions"`
	ResponseText string              `json:"responseText"`
}

// ProviderFactory creates a provider from string settings
type ProviderFactory func(config map[string]string) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
	logger    *zap.Logger
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
		logger:    zap.NewNop(),
	}
}

// DefaultRegistry returns a registry with every built-in provider. Providers
// it creates log through logger.
func DefaultRegistry(logger *zap.Logger) *ProviderRegistry {
	r := NewProviderRegistry()
	if logger != nil {
		r.logger = logger
	}
	RegisterOpenAI(r)
	RegisterGemini(r)
	return r
}

// Logger is the logger handed to providers created by this registry
func (r *ProviderRegistry) Logger() *zap.Logger {
	return r.logger
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// Names lists the registered providers
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}

package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

// completionOptions tune one request
type completionOptions struct {
	temperature float64
	maxTokens   int64
	jsonObject  bool
}

// OpenAIProvider implements Provider using OpenAI's chat completions API.
// Research is answered from model knowledge alone and returns no sources.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Summarize condenses notes into a short summary
func (p *OpenAIProvider) Summarize(ctx context.Context, notes string) (string, error) {
	return p.complete(ctx, "summarize", "", summarizePrompt(notes), completionOptions{temperature: 0.3, maxTokens: 150})
}

// JournalPrompt returns a single reflective question
func (p *OpenAIProvider) JournalPrompt(ctx context.Context) (string, error) {
	return p.complete(ctx, "journal_prompt", "", journalPromptRequest, completionOptions{temperature: 0.8, maxTokens: 50})
}

// Chat answers one assistant message
func (p *OpenAIProvider) Chat(ctx context.Context, message string) (string, error) {
	return p.complete(ctx, "chat", chatSystemInstruction, message, completionOptions{temperature: 0.7, maxTokens: 500})
}

// Decompose breaks a goal into sub-task texts. JSON mode only produces
// objects, so the model is asked to wrap the array in {"tasks": [...]}.
func (p *OpenAIProvider) Decompose(ctx context.Context, goal string) ([]string, error) {
	prompt := decomposePrompt(goal) + "\nWrap the array in a JSON object as {\"tasks\": [...]}."
	content, err := p.complete(ctx, "decompose", "", prompt, completionOptions{temperature: 0.2, jsonObject: true})
	if err != nil {
		return nil, err
	}
	return ParseSubTasks(content)
}

// AgentTurn asks the agent for a reply and tool calls
func (p *OpenAIProvider) AgentTurn(ctx context.Context, prompt string, state AgentContext) (*AgentPayload, error) {
	content, err := p.complete(ctx, "agent_turn", AgentSystemInstruction(state), prompt, completionOptions{temperature: 0.5, jsonObject: true})
	if err != nil {
		return nil, err
	}
	return ParseAgentPayload(content)
}

// Research answers a question without web grounding
func (p *OpenAIProvider) Research(ctx context.Context, prompt string) (*models.ResearchResult, error) {
	content, err := p.complete(ctx, "research", researchSystemInstruction, prompt, completionOptions{temperature: 0.7})
	if err != nil {
		return nil, err
	}
	return &models.ResearchResult{Text: content}, nil
}

// complete sends one system+user exchange and returns the first choice
func (p *OpenAIProvider) complete(ctx context.Context, operation, system, user string, opts completionOptions) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(opts.temperature),
	}
	if opts.maxTokens > 0 {
		req.MaxTokens = openai.Int(opts.maxTokens)
	}
	if opts.jsonObject {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	requestID := requestIDFromContext(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("provider", "openai"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(user)),
			zap.Int("message_count", len(messages)),
			zap.String("prompt_preview", SanitizePrompt(user, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("provider", "openai"),
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return "", wrapAPIError("openai", strings.ReplaceAll(operation, "_", " "), err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesInResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("provider", "openai"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		return NewOpenAIProviderWithLogger(apiKey, config["base_url"], config["model"], registry.Logger(), config["debug"] == "true"), nil
	})
}

var _ Provider = (*OpenAIProvider)(nil)

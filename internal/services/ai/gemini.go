package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is the default Gemini model
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider on the Gemini API. Structured calls use
// response schemas and research is grounded with Google Search.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api_key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

var (
	subTasksSchema = &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	agentResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"actions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"toolName": {Type: genai.TypeString, Enum: toolNames()},
						"args": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"text":         {Type: genai.TypeString},
								"priority":     {Type: genai.TypeString, Enum: []string{"Low", "Medium", "High"}},
								"category":     {Type: genai.TypeString},
								"dueDate":      {Type: genai.TypeString},
								"reminderTime": {Type: genai.TypeString},
								"goal":         {Type: genai.TypeString},
								"content":      {Type: genai.TypeString},
							},
						},
					},
				},
			},
			"responseText": {Type: genai.TypeString},
		},
	}
)

func toolNames() []string {
	names := make([]string, len(models.KnownTools))
	for i, t := range models.KnownTools {
		names[i] = string(t)
	}
	return names
}

// Summarize condenses notes into a short summary
func (p *GeminiProvider) Summarize(ctx context.Context, notes string) (string, error) {
	resp, err := p.generate(ctx, "summarize", summarizePrompt(notes), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		MaxOutputTokens: 150,
		ThinkingConfig:  &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](100)},
	})
	if err != nil {
		return "", err
	}
	return textOf(resp)
}

// JournalPrompt returns a single reflective question
func (p *GeminiProvider) JournalPrompt(ctx context.Context) (string, error) {
	resp, err := p.generate(ctx, "journal_prompt", journalPromptRequest, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.8),
		MaxOutputTokens: 50,
	})
	if err != nil {
		return "", err
	}
	return textOf(resp)
}

// Chat answers one assistant message
func (p *GeminiProvider) Chat(ctx context.Context, message string) (string, error) {
	resp, err := p.generate(ctx, "chat", message, &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   500,
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](200)},
		SystemInstruction: genai.NewContentFromText(chatSystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", err
	}
	return textOf(resp)
}

// Decompose breaks a goal into sub-task texts
func (p *GeminiProvider) Decompose(ctx context.Context, goal string) ([]string, error) {
	resp, err := p.generate(ctx, "decompose", decomposePrompt(goal), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   subTasksSchema,
	})
	if err != nil {
		return nil, err
	}
	text, err := textOf(resp)
	if err != nil {
		return nil, err
	}
	return ParseSubTasks(text)
}

// AgentTurn asks the agent for a reply and tool calls
func (p *GeminiProvider) AgentTurn(ctx context.Context, prompt string, state AgentContext) (*AgentPayload, error) {
	resp, err := p.generate(ctx, "agent_turn", prompt, &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.5),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    agentResponseSchema,
		SystemInstruction: genai.NewContentFromText(AgentSystemInstruction(state), genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	text, err := textOf(resp)
	if err != nil {
		return nil, err
	}
	return ParseAgentPayload(text)
}

// Research answers a question grounded in Google Search results
func (p *GeminiProvider) Research(ctx context.Context, prompt string) (*models.ResearchResult, error) {
	resp, err := p.generate(ctx, "research", prompt, &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: genai.NewContentFromText(researchSystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	text, err := textOf(resp)
	if err != nil {
		return nil, err
	}
	return &models.ResearchResult{Text: text, Sources: groundingSources(resp)}, nil
}

func (p *GeminiProvider) generate(ctx context.Context, operation, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	requestID := requestIDFromContext(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("provider", "gemini"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("provider", "gemini"),
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return nil, wrapAPIError("gemini", strings.ReplaceAll(operation, "_", " "), err)
	}

	if p.debugMode {
		text := resp.Text()
		p.logger.Debug("llm_api_response",
			zap.String("provider", "gemini"),
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(text)),
			zap.String("response_preview", SanitizeResponse(text, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return resp, nil
}

func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// groundingSources lists the web pages a grounded answer cited, in order and
// without duplicates
func groundingSources(resp *genai.GenerateContentResponse) []models.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	seen := make(map[string]bool)
	var sources []models.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, models.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(registry *ProviderRegistry) {
	registry.Register("gemini", func(config map[string]string) (Provider, error) {
		p, err := NewGeminiProvider(context.Background(), config["api_key"], config["model"], registry.Logger(), config["debug"] == "true")
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

var _ Provider = (*GeminiProvider)(nil)

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/benvon/itsdone/internal/agent"
	"github.com/benvon/itsdone/internal/database"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zaptest"
)

// mockProvider is a mock implementation of ai.Provider
type mockProvider struct {
	summarizeFunc     func(ctx context.Context, notes string) (string, error)
	journalPromptFunc func(ctx context.Context) (string, error)
	chatFunc          func(ctx context.Context, message string) (string, error)
	decomposeFunc     func(ctx context.Context, goal string) ([]string, error)
	agentTurnFunc     func(ctx context.Context, prompt string, state ai.AgentContext) (*ai.AgentPayload, error)
	researchFunc      func(ctx context.Context, prompt string) (*models.ResearchResult, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockProvider) Summarize(ctx context.Context, notes string) (string, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, notes)
	}
	return "", errNotMocked
}

func (m *mockProvider) JournalPrompt(ctx context.Context) (string, error) {
	if m.journalPromptFunc != nil {
		return m.journalPromptFunc(ctx)
	}
	return "", errNotMocked
}

func (m *mockProvider) Chat(ctx context.Context, message string) (string, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, message)
	}
	return "", errNotMocked
}

func (m *mockProvider) Decompose(ctx context.Context, goal string) ([]string, error) {
	if m.decomposeFunc != nil {
		return m.decomposeFunc(ctx, goal)
	}
	return nil, errNotMocked
}

func (m *mockProvider) AgentTurn(ctx context.Context, prompt string, state ai.AgentContext) (*ai.AgentPayload, error) {
	if m.agentTurnFunc != nil {
		return m.agentTurnFunc(ctx, prompt, state)
	}
	return nil, errNotMocked
}

func (m *mockProvider) Research(ctx context.Context, prompt string) (*models.ResearchResult, error) {
	if m.researchFunc != nil {
		return m.researchFunc(ctx, prompt)
	}
	return nil, errNotMocked
}

var _ ai.Provider = (*mockProvider)(nil)

// testServer wires every handler against an in-memory store
type testServer struct {
	store  *store.Store
	router *mux.Router
}

func newTestServer(t *testing.T, provider ai.Provider) *testServer {
	t.Helper()

	logger := zaptest.NewLogger(t)
	s := store.New(database.NewMemoryKV(), logger)
	s.Load(context.Background())

	gateway := ai.NewGateway(provider, logger)
	session := agent.NewSession(agent.SessionConfig{
		Store:      s,
		Turner:     gateway,
		Decomposer: gateway,
		Matcher:    agent.NewMatcher(agent.MatchSubstring),
		Logger:     logger,
	})

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	NewTaskHandler(s, logger).RegisterRoutes(api)
	NewDashboardHandler(s, gateway, logger).RegisterRoutes(api, nil)
	NewPomodoroHandler(s).RegisterRoutes(api)
	NewAssistantHandler(s, gateway, logger).RegisterRoutes(api, nil)
	NewAgentHandler(session, logger).RegisterRoutes(api, nil)

	return &testServer{store: s, router: r}
}

// envelope is the response wrapper written by respondJSON and respondJSONError
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
	return v
}

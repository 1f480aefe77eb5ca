package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
)

func TestDashboardHandler_FocusAndNotes(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	status, env := ts.do(t, "GET", "/api/v1/notes", nil)
	if got := decodeData[map[string]string](t, env)["notes"]; status != http.StatusOK || got != store.DefaultNotes {
		t.Errorf("Expected default notes, got %q", got)
	}

	if status, _ = ts.do(t, "PUT", "/api/v1/focus", map[string]any{"focus": "  Ship the release "}); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if got := ts.store.Focus(); got != "Ship the release" {
		t.Errorf("Expected trimmed focus, got %q", got)
	}

	if status, _ = ts.do(t, "PUT", "/api/v1/notes", map[string]any{"notes": "first"}); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	status, env = ts.do(t, "POST", "/api/v1/notes/append", map[string]any{"text": "\nsecond"})
	if got := decodeData[map[string]string](t, env)["notes"]; status != http.StatusOK || got != "first\nsecond" {
		t.Errorf("Expected appended notes, got %q", got)
	}
}

func TestDashboardHandler_SummarizeNotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		notes          string
		provider       ai.Provider
		expectText     string
		expectFallback bool
	}{
		{
			name:  "summary",
			notes: "A long enough set of notes to summarize.",
			provider: &mockProvider{summarizeFunc: func(_ context.Context, notes string) (string, error) {
				return "**Short** summary", nil
			}},
			expectText: "**Short** summary",
		},
		{
			name:           "notes too short",
			notes:          "tiny",
			provider:       &mockProvider{},
			expectText:     ai.FallbackNotesTooShort,
			expectFallback: true,
		},
		{
			name:  "provider error",
			notes: "A long enough set of notes to summarize.",
			provider: &mockProvider{summarizeFunc: func(context.Context, string) (string, error) {
				return "", errors.New("boom")
			}},
			expectText:     ai.FallbackSummary,
			expectFallback: true,
		},
		{
			name:           "no provider",
			notes:          "A long enough set of notes to summarize.",
			expectText:     ai.FallbackSummary,
			expectFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer(t, tt.provider)
			ts.store.UpdateNotes(context.Background(), tt.notes)

			status, env := ts.do(t, "POST", "/api/v1/notes/summarize", nil)
			if status != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", status)
			}
			got := decodeData[AIText](t, env)
			if got.Text != tt.expectText {
				t.Errorf("Expected text %q, got %q", tt.expectText, got.Text)
			}
			if got.Fallback != tt.expectFallback {
				t.Errorf("Expected fallback=%v, got %v", tt.expectFallback, got.Fallback)
			}
			if ts.store.Notes() != tt.notes {
				t.Error("Expected summarize to leave the notes untouched")
			}
		})
	}
}

func TestDashboardHandler_Journal(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &mockProvider{journalPromptFunc: func(context.Context) (string, error) {
		return `"What made you smile today?"`, nil
	}})

	status, env := ts.do(t, "PUT", "/api/v1/journal/2026-03-01", map[string]any{"content": "Went hiking"})
	if status != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", status, env.Message)
	}
	if status, _ = ts.do(t, "PUT", "/api/v1/journal/2026-03-01", map[string]any{"content": "Went hiking twice"}); status != http.StatusOK {
		t.Errorf("Expected status 200 on replace, got %d", status)
	}
	if status, _ = ts.do(t, "PUT", "/api/v1/journal/2026-02-30", map[string]any{"content": "x"}); status != http.StatusBadRequest {
		t.Errorf("Expected status 400 for impossible date, got %d", status)
	}

	status, env = ts.do(t, "GET", "/api/v1/journal/2026-03-01", nil)
	if got := decodeData[models.JournalEntry](t, env); status != http.StatusOK || got.Content != "Went hiking twice" {
		t.Errorf("Expected replaced entry, got %+v", got)
	}
	if status, _ = ts.do(t, "GET", "/api/v1/journal/2020-01-01", nil); status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", status)
	}

	status, env = ts.do(t, "GET", "/api/v1/journal/today", nil)
	if got := decodeData[models.JournalEntry](t, env); status != http.StatusOK || got.Date != ts.store.Today() {
		t.Errorf("Expected today's date %s, got %+v", ts.store.Today(), got)
	}

	_, env = ts.do(t, "POST", "/api/v1/journal/prompt", nil)
	if got := decodeData[AIText](t, env); got.Text != "What made you smile today?" || got.Fallback {
		t.Errorf("Expected unquoted prompt, got %+v", got)
	}
}

func TestDashboardHandler_Pins(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	status, env := ts.do(t, "POST", "/api/v1/pins", map[string]any{
		"prompt":   "Best hikes",
		"response": "Try the ridge trail.",
		"sources":  []map[string]string{{"uri": "https://example.com/hikes", "title": "Hikes"}},
	})
	if status != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (%s)", status, env.Message)
	}
	pin := decodeData[models.PinnedItem](t, env)
	if len(pin.Sources) != 1 || pin.Sources[0].Title != "Hikes" {
		t.Errorf("Expected pinned sources, got %+v", pin.Sources)
	}

	_, env = ts.do(t, "GET", "/api/v1/pins", nil)
	if pins := decodeData[[]models.PinnedItem](t, env); len(pins) != 1 {
		t.Fatalf("Expected 1 pin, got %d", len(pins))
	}

	path := fmt.Sprintf("/api/v1/pins/%d", pin.ID)
	if status, _ = ts.do(t, "DELETE", path, nil); status != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", status)
	}
	if status, _ = ts.do(t, "DELETE", path, nil); status != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", status)
	}
}

func TestDashboardHandler_Render(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	status, env := ts.do(t, "POST", "/api/v1/render", map[string]any{"text": "**Hi** <script>"})
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	html := decodeData[map[string]string](t, env)["html"]
	if !strings.Contains(html, "<strong>Hi</strong>") {
		t.Errorf("Expected bold markup, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("Expected markup to be escaped, got %q", html)
	}
}

func TestDashboardHandler_State(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	ts.do(t, "POST", "/api/v1/tasks", map[string]any{"text": "One"})

	status, env := ts.do(t, "GET", "/api/v1/state", nil)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	snap := decodeData[store.Snapshot](t, env)
	if len(snap.Tasks) != 1 || snap.Notes != store.DefaultNotes {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}
}

package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	NewOpenAPIHandler().RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", nil))
	if w.Code != 200 || !strings.HasPrefix(w.Body.String(), "openapi:") {
		t.Errorf("Expected YAML document, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.json", nil))
	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	for _, path := range []string{"/tasks", "/agent", "/pomodoro/{event}", "/research/export"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("Expected path %s to be documented", path)
		}
	}
}

// Every route the API registers must appear in the document.
func TestOpenAPIHandler_CoversRoutes(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	w := httptest.NewRecorder()
	NewOpenAPIHandler().ServeJSON(w, httptest.NewRequest("GET", "/openapi.json", nil))
	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}

	err := ts.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil || tpl == "/api/v1" {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		path := documentedPath(strings.TrimPrefix(tpl, "/api/v1"))
		for _, m := range methods {
			if _, ok := doc.Paths[path][strings.ToLower(m)]; !ok {
				t.Errorf("Route %s %s is not documented", m, path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
}

// documentedPath strips route regexps, turning {id:[0-9]+} into {id}
func documentedPath(tpl string) string {
	var b strings.Builder
	depth := 0
	skipping := false
	for _, r := range tpl {
		switch {
		case r == '{':
			depth++
			if depth == 1 {
				skipping = false
			}
		case r == '}':
			depth--
			if depth == 0 {
				skipping = false
				b.WriteRune(r)
				continue
			}
		case r == ':' && depth == 1:
			skipping = true
		}
		if !skipping {
			b.WriteRune(r)
		}
	}
	return b.String()
}

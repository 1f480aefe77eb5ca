package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		status      int
		expectEvent string
	}{
		{name: "rate limited", method: "POST", status: http.StatusTooManyRequests, expectEvent: "rate_limit_violation"},
		{name: "body too large", method: "POST", status: http.StatusRequestEntityTooLarge, expectEvent: "request_rejected"},
		{name: "wrong content type", method: "PUT", status: http.StatusUnsupportedMediaType, expectEvent: "request_rejected"},
		{name: "successful mutation", method: "PATCH", status: http.StatusOK, expectEvent: "state_mutation"},
		{name: "successful delete", method: "DELETE", status: http.StatusNoContent, expectEvent: "state_mutation"},
		{name: "read", method: "GET", status: http.StatusOK},
		{name: "failed mutation", method: "POST", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			handler := Audit(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, "/api/v1/tasks", nil))

			entries := logs.All()
			if tt.expectEvent == "" {
				if len(entries) != 0 {
					t.Errorf("Expected no audit entries, got %d", len(entries))
				}
				return
			}
			if len(entries) != 1 || entries[0].Message != tt.expectEvent {
				t.Fatalf("Expected one '%s' entry, got %v", tt.expectEvent, entries)
			}
			if entries[0].ContextMap()["path"] != "/api/v1/tasks" {
				t.Errorf("Expected path field, got %v", entries[0].ContextMap())
			}
		})
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"message": "hello"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body struct {
		Success   bool              `json:"success"`
		Data      map[string]string `json:"data"`
		Timestamp string            `json:"timestamp"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success || body.Data["message"] != "hello" {
		t.Errorf("Unexpected body: %+v", body)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got '%s'", body.Timestamp)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		message       string
		expectMessage string
	}{
		{name: "short message", message: "Task not found", expectMessage: "Task not found"},
		{
			name:          "long message is truncated",
			message:       strings.Repeat("x", 250),
			expectMessage: strings.Repeat("x", maxErrorMessageLength) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, http.StatusNotFound, "Not Found", tt.message)

			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404, got %d", w.Code)
			}
			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["success"] != false || body["error"] != "Not Found" {
				t.Errorf("Unexpected body: %v", body)
			}
			if body["message"] != tt.expectMessage {
				t.Errorf("Expected message '%s', got '%v'", tt.expectMessage, body["message"])
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		limit        int64
		expectOK     bool
		expectStatus int
	}{
		{name: "valid", body: `{"message":"hi"}`, expectOK: true},
		{name: "malformed", body: `{"message":`, expectStatus: http.StatusBadRequest},
		{name: "fails validation", body: `{"message":"  "}`, expectStatus: http.StatusBadRequest},
		{name: "too large", body: `{"message":"` + strings.Repeat("a", 64) + `"}`, limit: 16, expectStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, tt.limit)
			}

			var req MessageRequest
			ok := decodeJSON(w, r, &req)
			if ok != tt.expectOK {
				t.Fatalf("Expected ok=%v, got %v", tt.expectOK, ok)
			}
			if !ok && w.Code != tt.expectStatus {
				t.Errorf("Expected status %d, got %d", tt.expectStatus, w.Code)
			}
			if ok && req.Message != "hi" {
				t.Errorf("Expected message 'hi', got '%s'", req.Message)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       string
		expectID int64
		expectOK bool
	}{
		{id: "42", expectID: 42, expectOK: true},
		{id: "0"},
		{id: "abc"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": tt.id})

		id, ok := pathID(w, r)
		if ok != tt.expectOK || id != tt.expectID {
			t.Errorf("pathID(%q): expected (%d, %v), got (%d, %v)", tt.id, tt.expectID, tt.expectOK, id, ok)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Errorf("pathID(%q): expected status 400, got %d", tt.id, w.Code)
		}
	}
}

func TestOrPassthrough(t *testing.T) {
	t.Parallel()

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	orPassthrough(nil)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("Expected nil middleware to pass requests through")
	}
}

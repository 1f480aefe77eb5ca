package ai

import (
	"strings"
	"testing"
)

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: ""},
		{name: "short", key: "abc", want: RedactedValue},
		{name: "long", key: "sk-1234567890abcd", want: "sk-1" + RedactedValue + "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeAPIKey(tt.key); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizePrompt(t *testing.T) {
	t.Parallel()

	if got := SanitizePrompt("hello\x00\x07 world\n", false); got != "hello world\n" {
		t.Errorf("Expected control characters stripped, got %q", got)
	}

	long := strings.Repeat("é", MaxPreviewLength+10)
	got := SanitizePrompt(long, false)
	if want := strings.Repeat("é", MaxPreviewLength) + "..."; got != want {
		t.Errorf("Expected rune-safe truncation to %d runes", MaxPreviewLength)
	}

	if got := SanitizeResponse(long, true); got != long {
		t.Error("Expected full log mode to keep content under the debug cap")
	}

	if got := SanitizePrompt("bad\xffutf8", false); got != "badutf8" {
		t.Errorf("Expected invalid UTF-8 removed, got %q", got)
	}
}

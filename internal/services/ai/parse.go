package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFence removes a surrounding ```json ... ``` (or bare ```) fence
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSON returns the outermost span between open and close. Models
// sometimes wrap valid JSON in prose.
func extractJSON(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// ParseAgentPayload decodes an agent turn from model output
func ParseAgentPayload(content string) (*AgentPayload, error) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, ErrEmptyResponse
	}
	var payload AgentPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		if err := json.Unmarshal([]byte(extractJSON(raw, '{', '}')), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse agent response: %w", err)
		}
	}
	return &payload, nil
}

// ParseSubTasks decodes a JSON array of task texts and drops blank items.
// A JSON object with a single array field is accepted as well, since JSON
// mode on some backends cannot return a bare array.
func ParseSubTasks(content string) ([]string, error) {
	raw := stripCodeFence(content)
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	var items []string
	if err := json.Unmarshal([]byte(extractJSON(raw, '[', ']')), &items); err != nil {
		var wrapped map[string][]string
		if err2 := json.Unmarshal([]byte(extractJSON(raw, '{', '}')), &wrapped); err2 != nil || len(wrapped) != 1 {
			return nil, fmt.Errorf("failed to parse sub-tasks: %w", err)
		}
		for _, v := range wrapped {
			items = v
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := strings.TrimSpace(item); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

package agent

import (
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/models"
)

// MatchStrategy names how a text reference is compared to task texts
type MatchStrategy string

const (
	MatchSubstring MatchStrategy = "substring"
	MatchExact     MatchStrategy = "exact"
	MatchPrefix    MatchStrategy = "prefix"
)

// ParseMatchStrategy validates a strategy name. Empty means substring.
func ParseMatchStrategy(s string) (MatchStrategy, error) {
	switch MatchStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchExact:
		return MatchExact, nil
	case MatchPrefix:
		return MatchPrefix, nil
	default:
		return "", fmt.Errorf("unknown match strategy: %q", s)
	}
}

// Matcher finds the tasks a free-text reference could mean
type Matcher interface {
	Match(text string, tasks []models.Task) []models.Task
}

// NewMatcher returns the case-insensitive matcher for a strategy
func NewMatcher(strategy MatchStrategy) Matcher {
	switch strategy {
	case MatchExact:
		return foldMatcher(strings.EqualFold)
	case MatchPrefix:
		return foldMatcher(func(task, ref string) bool {
			return strings.HasPrefix(strings.ToLower(task), strings.ToLower(ref))
		})
	default:
		return foldMatcher(func(task, ref string) bool {
			return strings.Contains(strings.ToLower(task), strings.ToLower(ref))
		})
	}
}

type foldMatcher func(taskText, ref string) bool

func (f foldMatcher) Match(text string, tasks []models.Task) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if f(t.Text, text) {
			out = append(out, t)
		}
	}
	return out
}

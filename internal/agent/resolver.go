// Package agent turns a validated agent response into state mutations: it
// guards against duplicate adds, resolves text references to task ids and
// executes what remains against the store.
package agent

import (
	"fmt"
	"strings"

	"github.com/benvon/itsdone/internal/models"
)

// Ambiguity records a text reference that matched more than one task
type Ambiguity struct {
	Tool       models.ToolName `json:"tool"`
	Text       string          `json:"text"`
	Candidates []int64         `json:"candidates"`
}

// Resolution is the outcome of Resolve
type Resolution struct {
	// Actions are the actions to execute, in the order the agent proposed them
	Actions []models.Action
	// Response is the annotated agent response
	Response models.AgentResponse
	// Duplicate is the add that the guard removed, if any
	Duplicate *models.AddTask
	// Ambiguous lists references left unresolved because several tasks matched
	Ambiguous []Ambiguity
}

// Resolver applies the duplicate guard and id resolution
type Resolver struct {
	matcher Matcher
}

// NewResolver creates a resolver. A nil matcher means substring matching.
func NewResolver(m Matcher) *Resolver {
	if m == nil {
		m = NewMatcher(MatchSubstring)
	}
	return &Resolver{matcher: m}
}

// Resolve uses the default substring matcher
func Resolve(resp models.AgentResponse, tasks []models.Task) Resolution {
	return NewResolver(nil).Resolve(resp, tasks)
}

// Resolve prepares resp for execution against tasks. It never mutates its
// inputs.
func (r *Resolver) Resolve(resp models.AgentResponse, tasks []models.Task) Resolution {
	actions := append([]models.Action(nil), resp.Actions...)
	res := Resolution{Response: models.AgentResponse{ResponseText: resp.ResponseText}}

	if i, dup := findDuplicateAdd(actions, tasks); i >= 0 {
		actions = append(actions[:i], actions[i+1:]...)
		res.Duplicate = &dup
		res.Response.ResponseText = models.DuplicateTaskResponse
	}

	for i, a := range actions {
		target, ok := a.(models.TaskTargeting)
		if !ok {
			continue
		}
		ref := target.Target()
		if ref.Resolved() || strings.TrimSpace(ref.Text) == "" {
			continue
		}
		matches := r.matcher.Match(ref.Text, tasks)
		switch len(matches) {
		case 0:
		case 1:
			ref.ID = matches[0].ID
			actions[i] = target.WithTarget(ref)
		default:
			ids := make([]int64, len(matches))
			for j, m := range matches {
				ids[j] = m.ID
			}
			res.Ambiguous = append(res.Ambiguous, Ambiguity{Tool: a.Tool(), Text: ref.Text, Candidates: ids})
		}
	}

	if len(res.Ambiguous) > 0 {
		res.Response.ResponseText = appendSentence(res.Response.ResponseText, clarification(res.Ambiguous))
	}

	res.Actions = actions
	res.Response.Actions = actions
	return res
}

// findDuplicateAdd returns the index of the first add whose text equals an
// existing task's text, ignoring case
func findDuplicateAdd(actions []models.Action, tasks []models.Task) (int, models.AddTask) {
	for i, a := range actions {
		add, ok := a.(models.AddTask)
		if !ok {
			continue
		}
		for _, t := range tasks {
			if strings.EqualFold(t.Text, add.Text) {
				return i, add
			}
		}
	}
	return -1, models.AddTask{}
}

func clarification(amb []Ambiguity) string {
	quoted := make([]string, len(amb))
	for i, a := range amb {
		quoted[i] = fmt.Sprintf("%q", a.Text)
	}
	return fmt.Sprintf("I found more than one task matching %s, so I left them alone. Which one did you mean?",
		strings.Join(quoted, ", "))
}

func appendSentence(text, sentence string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return sentence
	}
	return text + " " + sentence
}

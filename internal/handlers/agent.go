package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/itsdone/internal/agent"
	"github.com/benvon/itsdone/internal/markup"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AgentHandler serves the feel-good agent
type AgentHandler struct {
	session *agent.Session
	logger  *zap.Logger
}

// NewAgentHandler creates an agent handler
func NewAgentHandler(session *agent.Session, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{session: session, logger: logger}
}

// RegisterRoutes registers the agent routes. limit wraps the turn endpoint.
func (h *AgentHandler) RegisterRoutes(r *mux.Router, limit Middleware) {
	limit = orPassthrough(limit)

	r.Handle("/agent", limit(http.HandlerFunc(h.Turn))).Methods("POST")
	r.HandleFunc("/agent/history", h.History).Methods("GET")
	r.HandleFunc("/agent/history", h.ClearHistory).Methods("DELETE")
}

// AgentRequest is one prompt for the agent
type AgentRequest struct {
	Prompt string `json:"prompt" validate:"notblank,max=10000"`
}

// ActionOutcome reports one proposed action and what became of it
type ActionOutcome struct {
	Action  models.WireAction `json:"action"`
	Applied bool              `json:"applied"`
	Summary string            `json:"summary,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

// AgentReply is the result of an agent turn
type AgentReply struct {
	Text      string            `json:"text"`
	HTML      string            `json:"html"`
	Outcomes  []ActionOutcome   `json:"outcomes"`
	Blocked   string            `json:"blockedDuplicate,omitempty"`
	Ambiguous []agent.Ambiguity `json:"ambiguous,omitempty"`
	Fallback  bool              `json:"fallback"`
}

// Turn runs one agent turn and applies the actions it proposes
func (h *AgentHandler) Turn(w http.ResponseWriter, r *http.Request) {
	var req AgentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.session.Turn(r.Context(), req.Prompt)
	switch {
	case errors.Is(err, agent.ErrTurnInFlight):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
		return
	case errors.Is(err, agent.ErrEmptyPrompt):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	case err != nil:
		h.logger.Error("agent_turn_request_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Agent turn failed")
		return
	}

	reply := AgentReply{
		Text:      result.Reply,
		HTML:      markup.RenderHTML(result.Reply),
		Outcomes:  make([]ActionOutcome, 0, len(result.Outcomes)),
		Ambiguous: result.Ambiguous,
		Fallback:  result.Err != nil,
	}
	for _, o := range result.Outcomes {
		reply.Outcomes = append(reply.Outcomes, ActionOutcome{
			Action:  validation.EncodeAction(o.Action),
			Applied: o.Applied,
			Summary: o.Summary,
			Reason:  o.Reason,
		})
	}
	if result.Duplicate != nil {
		reply.Blocked = result.Duplicate.Text
	}
	respondJSON(w, http.StatusOK, reply)
}

// History returns the agent conversation
func (h *AgentHandler) History(w http.ResponseWriter, r *http.Request) {
	history := h.session.History()
	if history == nil {
		history = []models.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, history)
}

// ClearHistory empties the agent conversation
func (h *AgentHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.session.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/benvon/itsdone/internal/markup"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AssistantHandler serves the assistant widget: plain chat, and grounded
// research when research mode is on
type AssistantHandler struct {
	store   *store.Store
	gateway *ai.Gateway
	logger  *zap.Logger
}

// NewAssistantHandler creates an assistant handler
func NewAssistantHandler(s *store.Store, gateway *ai.Gateway, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{store: s, gateway: gateway, logger: logger}
}

// RegisterRoutes registers the assistant routes. limit wraps the routes that
// call the language model.
func (h *AssistantHandler) RegisterRoutes(r *mux.Router, limit Middleware) {
	limit = orPassthrough(limit)

	r.Handle("/chat", limit(http.HandlerFunc(h.Chat))).Methods("POST")
	r.HandleFunc("/chat/history", h.History).Methods("GET")
	r.HandleFunc("/chat/history", h.ClearHistory).Methods("DELETE")
	r.Handle("/research", limit(http.HandlerFunc(h.Research))).Methods("POST")
	r.Handle("/research/deep-dive", limit(http.HandlerFunc(h.DeepDive))).Methods("POST")
	r.HandleFunc("/research/export", h.Export).Methods("POST")
	r.HandleFunc("/research-mode", h.GetResearchMode).Methods("GET")
	r.HandleFunc("/research-mode", h.SetResearchMode).Methods("PUT")
}

// MessageRequest is a message typed into the assistant
type MessageRequest struct {
	Message string `json:"message" validate:"notblank,max=10000"`
}

// ExportRequest appends a research answer to the notes
type ExportRequest struct {
	Prompt  string          `json:"prompt" validate:"notblank"`
	Text    string          `json:"text" validate:"notblank"`
	Sources []models.Source `json:"sources,omitempty"`
}

// ResearchModeRequest switches research mode
type ResearchModeRequest struct {
	Enabled bool `json:"enabled"`
}

// AssistantReply is the answer to one assistant message
type AssistantReply struct {
	Text     string          `json:"text"`
	HTML     string          `json:"html"`
	Sources  []models.Source `json:"sources,omitempty"`
	Research bool            `json:"research"`
	Fallback bool            `json:"fallback"`
}

// Chat answers a message, routing it to research when research mode is on.
// Both sides of the exchange are kept in the assistant history.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)

	var reply AssistantReply
	if h.store.ResearchMode() {
		reply = h.research(r, message)
	} else {
		text, err := h.gateway.Chat(r.Context(), message)
		reply = AssistantReply{Text: text, Fallback: err != nil}
	}
	reply.HTML = markup.RenderHTML(reply.Text)

	h.store.AppendAssistantMessages(r.Context(),
		models.ChatMessage{Sender: models.SenderUser, Text: message},
		models.ChatMessage{Sender: models.SenderAI, Text: reply.Text},
	)
	respondJSON(w, http.StatusOK, reply)
}

// Research answers a question with web sources, without touching the history
func (h *AssistantHandler) Research(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply := h.research(r, strings.TrimSpace(req.Message))
	reply.HTML = markup.RenderHTML(reply.Text)
	respondJSON(w, http.StatusOK, reply)
}

// DeepDive re-asks a research question for a more detailed answer
func (h *AssistantHandler) DeepDive(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply := h.research(r, ai.DeepDivePrompt(strings.TrimSpace(req.Message)))
	reply.HTML = markup.RenderHTML(reply.Text)
	respondJSON(w, http.StatusOK, reply)
}

func (h *AssistantHandler) research(r *http.Request, prompt string) AssistantReply {
	result, err := h.gateway.Research(r.Context(), prompt)
	return AssistantReply{
		Text:     result.Text,
		Sources:  result.Sources,
		Research: true,
		Fallback: err != nil,
	}
}

// Export appends a formatted research answer to the notes
func (h *AssistantHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	notes := h.store.AppendNotes(r.Context(), ai.ExportToNotes(req.Prompt, models.ResearchResult{
		Text:    req.Text,
		Sources: req.Sources,
	}))
	h.logger.Info("research_exported_to_notes", zap.Int("sources", len(req.Sources)))
	respondJSON(w, http.StatusOK, map[string]string{"notes": notes})
}

// History returns the assistant conversation
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.AssistantHistory())
}

// ClearHistory resets the assistant conversation
func (h *AssistantHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAssistantHistory(r.Context())
	respondJSON(w, http.StatusOK, h.store.AssistantHistory())
}

// GetResearchMode reports whether research mode is on
func (h *AssistantHandler) GetResearchMode(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ResearchModeRequest{Enabled: h.store.ResearchMode()})
}

// SetResearchMode switches research mode
func (h *AssistantHandler) SetResearchMode(w http.ResponseWriter, r *http.Request) {
	var req ResearchModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.store.SetResearchMode(r.Context(), req.Enabled)
	respondJSON(w, http.StatusOK, req)
}

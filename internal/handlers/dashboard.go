package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/markup"
	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/services/ai"
	"github.com/benvon/itsdone/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DashboardHandler serves the focus, notes, journal, pins and render widgets
type DashboardHandler struct {
	store   *store.Store
	gateway *ai.Gateway
	logger  *zap.Logger
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(s *store.Store, gateway *ai.Gateway, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{store: s, gateway: gateway, logger: logger}
}

// RegisterRoutes registers the dashboard routes. limit wraps the routes that
// call the language model.
func (h *DashboardHandler) RegisterRoutes(r *mux.Router, limit Middleware) {
	limit = orPassthrough(limit)

	r.HandleFunc("/state", h.GetState).Methods("GET")
	r.HandleFunc("/focus", h.GetFocus).Methods("GET")
	r.HandleFunc("/focus", h.SetFocus).Methods("PUT")
	r.HandleFunc("/notes", h.GetNotes).Methods("GET")
	r.HandleFunc("/notes", h.UpdateNotes).Methods("PUT")
	r.HandleFunc("/notes/append", h.AppendNotes).Methods("POST")
	r.Handle("/notes/summarize", limit(http.HandlerFunc(h.SummarizeNotes))).Methods("POST")
	r.HandleFunc("/journal", h.ListJournal).Methods("GET")
	r.HandleFunc("/journal/today", h.GetJournalToday).Methods("GET")
	r.HandleFunc("/journal/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", h.GetJournalEntry).Methods("GET")
	r.HandleFunc("/journal/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", h.SaveJournalEntry).Methods("PUT")
	r.Handle("/journal/prompt", limit(http.HandlerFunc(h.JournalPrompt))).Methods("POST")
	r.HandleFunc("/pins", h.ListPins).Methods("GET")
	r.HandleFunc("/pins", h.CreatePin).Methods("POST")
	r.HandleFunc("/pins/{id:[0-9]+}", h.DeletePin).Methods("DELETE")
	r.HandleFunc("/render", h.Render).Methods("POST")
}

// FocusRequest sets the daily focus
type FocusRequest struct {
	Focus string `json:"focus" validate:"max=500"`
}

// NotesRequest replaces the notes
type NotesRequest struct {
	Notes string `json:"notes" validate:"max=100000"`
}

// AppendNotesRequest appends text to the notes
type AppendNotesRequest struct {
	Text string `json:"text" validate:"notblank,max=100000"`
}

// JournalRequest saves a journal entry
type JournalRequest struct {
	Content string `json:"content" validate:"max=100000"`
}

// PinRequest pins a research result
type PinRequest struct {
	Prompt   string          `json:"prompt" validate:"notblank"`
	Response string          `json:"response" validate:"notblank"`
	Sources  []models.Source `json:"sources,omitempty"`
}

// RenderRequest carries markup text to render
type RenderRequest struct {
	Text string `json:"text" validate:"max=200000"`
}

// AIText is the answer of a language-model widget. Fallback is true when the
// text is a canned message standing in for a failed call.
type AIText struct {
	Text     string `json:"text"`
	HTML     string `json:"html,omitempty"`
	Fallback bool   `json:"fallback"`
}

// GetState returns a snapshot of the whole dashboard
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Snapshot())
}

// GetFocus returns the daily focus
func (h *DashboardHandler) GetFocus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"focus": h.store.Focus()})
}

// SetFocus replaces the daily focus
func (h *DashboardHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	focus := strings.TrimSpace(req.Focus)
	h.store.SetFocus(r.Context(), focus)
	respondJSON(w, http.StatusOK, map[string]string{"focus": focus})
}

// GetNotes returns the notes
func (h *DashboardHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"notes": h.store.Notes()})
}

// UpdateNotes replaces the notes
func (h *DashboardHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.store.UpdateNotes(r.Context(), req.Notes)
	respondJSON(w, http.StatusOK, map[string]string{"notes": req.Notes})
}

// AppendNotes adds text to the end of the notes
func (h *DashboardHandler) AppendNotes(w http.ResponseWriter, r *http.Request) {
	var req AppendNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	notes := h.store.AppendNotes(r.Context(), req.Text)
	respondJSON(w, http.StatusOK, map[string]string{"notes": notes})
}

// SummarizeNotes asks the model for a summary of the current notes
func (h *DashboardHandler) SummarizeNotes(w http.ResponseWriter, r *http.Request) {
	summary, err := h.gateway.Summarize(r.Context(), h.store.Notes())
	respondJSON(w, http.StatusOK, AIText{
		Text:     summary,
		HTML:     markup.RenderHTML(summary),
		Fallback: err != nil,
	})
}

// ListJournal returns every journal entry, newest first
func (h *DashboardHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	entries := h.store.RecentJournalEntries(-1)
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetJournalToday returns today's entry, empty when nothing was written yet
func (h *DashboardHandler) GetJournalToday(w http.ResponseWriter, r *http.Request) {
	date := h.store.Today()
	entry, _ := h.store.JournalEntry(date)
	entry.Date = date
	respondJSON(w, http.StatusOK, entry)
}

// GetJournalEntry returns the entry for a date
func (h *DashboardHandler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.JournalEntry(mux.Vars(r)["date"])
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Journal entry not found")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// SaveJournalEntry creates or replaces the entry for a date
func (h *DashboardHandler) SaveJournalEntry(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse(models.JournalDateLayout, date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date")
		return
	}
	var req JournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.store.UpsertJournalEntry(r.Context(), date, req.Content)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, models.JournalEntry{Date: date, Content: req.Content})
}

// JournalPrompt asks the model for a reflection question
func (h *DashboardHandler) JournalPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.gateway.JournalPrompt(r.Context())
	respondJSON(w, http.StatusOK, AIText{Text: prompt, Fallback: err != nil})
}

// ListPins returns the pinned research results
func (h *DashboardHandler) ListPins(w http.ResponseWriter, r *http.Request) {
	pins := h.store.PinnedItems()
	if pins == nil {
		pins = []models.PinnedItem{}
	}
	respondJSON(w, http.StatusOK, pins)
}

// CreatePin pins a research result
func (h *DashboardHandler) CreatePin(w http.ResponseWriter, r *http.Request) {
	var req PinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item := h.store.PinItem(r.Context(), req.Prompt, req.Response, req.Sources)
	respondJSON(w, http.StatusCreated, item)
}

// DeletePin removes a pinned item
func (h *DashboardHandler) DeletePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.UnpinItem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrPinNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Pinned item not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to unpin item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Render converts markup text to safe HTML
func (h *DashboardHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"html": markup.RenderHTML(req.Text)})
}

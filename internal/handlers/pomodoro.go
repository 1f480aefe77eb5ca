package handlers

import (
	"net/http"

	"github.com/benvon/itsdone/internal/pomodoro"
	"github.com/benvon/itsdone/internal/store"
	"github.com/gorilla/mux"
)

// PomodoroHandler serves the focus timer
type PomodoroHandler struct {
	store *store.Store
}

// NewPomodoroHandler creates a pomodoro handler
func NewPomodoroHandler(s *store.Store) *PomodoroHandler {
	return &PomodoroHandler{store: s}
}

// RegisterRoutes registers the timer routes
func (h *PomodoroHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/pomodoro", h.GetStatus).Methods("GET")
	r.HandleFunc("/pomodoro/settings", h.UpdateSettings).Methods("PUT")
	r.HandleFunc("/pomodoro/{event}", h.ApplyEvent).Methods("POST")
}

// PomodoroStatus is the timer state with the time left in the interval
type PomodoroStatus struct {
	pomodoro.State
	ModeName         string `json:"modeName"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

func (h *PomodoroHandler) status() PomodoroStatus {
	st, remaining := h.store.PomodoroStatus()
	return PomodoroStatus{
		State:            st,
		ModeName:         st.Mode.Name(),
		RemainingSeconds: int(remaining.Seconds()),
	}
}

// GetStatus returns the timer state
func (h *PomodoroHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status())
}

// ApplyEvent feeds start, pause, reset or switch to the timer
func (h *PomodoroHandler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := pomodoro.ParseEvent(mux.Vars(r)["event"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.store.Pomodoro(r.Context(), ev)
	respondJSON(w, http.StatusOK, h.status())
}

// UpdateSettings changes the interval lengths
func (h *PomodoroHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req pomodoro.Durations
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.UpdatePomodoroSettings(r.Context(), req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.status())
}

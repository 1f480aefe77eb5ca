package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/itsdone/internal/models"
	"github.com/benvon/itsdone/internal/store"
	"github.com/benvon/itsdone/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxTaskTextLength is the maximum length for task text
const MaxTaskTextLength = 10000

// TaskHandler handles task requests
type TaskHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(s *store.Store, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{store: s, logger: logger}
}

// RegisterRoutes registers task routes on the API router
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	r.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods("GET")
	r.HandleFunc("/tasks/{id:[0-9]+}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/tasks/{id:[0-9]+}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/tasks/{id:[0-9]+}/toggle", h.ToggleTask).Methods("POST")
	r.HandleFunc("/tasks/{id:[0-9]+}/reminder", h.SetReminder).Methods("PUT")
	r.HandleFunc("/tasks/{id:[0-9]+}/reminder", h.CancelReminder).Methods("DELETE")
	r.HandleFunc("/categories", h.ListCategories).Methods("GET")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Text         string            `json:"text" validate:"notblank,max=10000"`
	Priority     string            `json:"priority,omitempty" validate:"omitempty,priority"`
	Category     string            `json:"category,omitempty" validate:"max=100"`
	DueDate      *models.Timestamp `json:"dueDate,omitempty"`
	ReminderTime *models.Timestamp `json:"reminderTime,omitempty"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Text          *string           `json:"text,omitempty" validate:"omitempty,notblank,max=10000"`
	Completed     *bool             `json:"completed,omitempty"`
	Priority      *string           `json:"priority,omitempty" validate:"omitempty,priority"`
	Category      *string           `json:"category,omitempty" validate:"omitempty,max=100"`
	DueDate       *models.Timestamp `json:"dueDate,omitempty"`
	ReminderTime  *models.Timestamp `json:"reminderTime,omitempty"`
	ClearDueDate  bool              `json:"clearDueDate,omitempty"`
	ClearReminder bool              `json:"clearReminder,omitempty"`
}

// ReminderRequest sets a task reminder
type ReminderRequest struct {
	ReminderTime *models.Timestamp `json:"reminderTime" validate:"required"`
}

// ListTasksResponse is the task listing
type ListTasksResponse struct {
	Tasks      []models.Task `json:"tasks"`
	Category   string        `json:"category"`
	Sort       string        `json:"sort"`
	Total      int           `json:"total"`
	Categories []string      `json:"categories"`
}

// ListTasks lists tasks, optionally filtered by ?category= and ordered by ?sort=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	sortMode, err := store.ParseSortMode(r.URL.Query().Get("sort"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		category = store.AllCategories
	}

	tasks := h.store.Tasks(store.ListOptions{Category: category, Sort: sortMode})
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondJSON(w, http.StatusOK, ListTasksResponse{
		Tasks:      tasks,
		Category:   category,
		Sort:       string(sortMode),
		Total:      len(tasks),
		Categories: categoriesOrEmpty(h.store.Categories()),
	})
}

// ListCategories lists the distinct task categories
func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, categoriesOrEmpty(h.store.Categories()))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text := validation.SanitizeText(req.Text)
	if text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}

	in := models.TaskInput{
		Text:         &text,
		DueDate:      req.DueDate,
		ReminderTime: req.ReminderTime,
	}
	if p, ok := models.ParsePriority(req.Priority); ok {
		in.Priority = &p
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		in.Category = &c
	}

	task, err := h.store.SaveTask(r.Context(), in)
	if err != nil {
		h.logger.Error("failed_to_create_task", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by id
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		h.respondTaskError(w, err, "Failed to retrieve task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask merges the given fields into a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := models.TaskInput{
		ID:            id,
		Completed:     req.Completed,
		DueDate:       req.DueDate,
		ReminderTime:  req.ReminderTime,
		ClearDueDate:  req.ClearDueDate,
		ClearReminder: req.ClearReminder,
	}
	if req.Text != nil {
		text := validation.SanitizeText(*req.Text)
		if text == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text cannot be empty")
			return
		}
		in.Text = &text
	}
	if req.Priority != nil {
		if p, ok := models.ParsePriority(*req.Priority); ok {
			in.Priority = &p
		}
	}
	if req.Category != nil {
		c := strings.TrimSpace(*req.Category)
		in.Category = &c
	}

	task, err := h.store.SaveTask(r.Context(), in)
	if err != nil {
		h.respondTaskError(w, err, "Failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		h.respondTaskError(w, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask flips a task between done and not done
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := h.store.ToggleTask(r.Context(), id)
	if err != nil {
		h.respondTaskError(w, err, "Failed to toggle task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// SetReminder sets the reminder time of a task
func (h *TaskHandler) SetReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReminderTime.IsZero() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "reminderTime is required")
		return
	}
	task, err := h.store.SetReminder(r.Context(), id, req.ReminderTime.Time)
	if err != nil {
		h.respondTaskError(w, err, "Failed to set reminder")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// CancelReminder clears the reminder time of a task
func (h *TaskHandler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := h.store.CancelReminder(r.Context(), id)
	if err != nil {
		h.respondTaskError(w, err, "Failed to cancel reminder")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) respondTaskError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrTaskNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	h.logger.Error("task_request_failed", zap.String("message", message), zap.Error(err))
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
}

func categoriesOrEmpty(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}

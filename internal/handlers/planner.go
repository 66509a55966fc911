package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultSessionPageSize = 50
	maxSessionPageSize     = 500
	maxSessionMinutes      = 24 * 60
)

// PlannerHandler exposes calendar progress, study sessions and insights.
type PlannerHandler struct {
	planner   *planner.Planner
	logger    *zap.Logger
	expensive func(http.Handler) http.Handler
}

// PlannerHandlerOption configures a PlannerHandler.
type PlannerHandlerOption func(*PlannerHandler)

// WithGenerateLimiter wraps calendar generation, which calls the AI provider.
func WithGenerateLimiter(mw func(http.Handler) http.Handler) PlannerHandlerOption {
	return func(h *PlannerHandler) {
		if mw != nil {
			h.expensive = mw
		}
	}
}

// NewPlannerHandler creates a new planner handler
func NewPlannerHandler(p *planner.Planner, logger *zap.Logger, opts ...PlannerHandlerOption) *PlannerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PlannerHandler{
		planner:   p,
		logger:    logger,
		expensive: func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers planner routes on a router already prefixed with /api/v1
func (h *PlannerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/progress", h.GetProgress).Methods(http.MethodGet)
	r.HandleFunc("/progress", h.ResetProgress).Methods(http.MethodDelete)
	r.Handle("/calendar/generate", h.expensive(http.HandlerFunc(h.GenerateCalendar))).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{day}/complete", h.CompleteTask).Methods(http.MethodPost)
	r.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions", h.RecordSession).Methods(http.MethodPost)
	r.HandleFunc("/analytics", h.GetAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/analytics/last7days", h.GetLast7Days).Methods(http.MethodGet)
	r.HandleFunc("/analytics/weekly", h.GetWeekly).Methods(http.MethodGet)
	r.HandleFunc("/gamification", h.GetGamification).Methods(http.MethodGet)
	r.HandleFunc("/prediction", h.GetPrediction).Methods(http.MethodGet)
	r.HandleFunc("/rewards", h.ListRewards).Methods(http.MethodGet)
	r.HandleFunc("/rewards/{id}/purchase", h.PurchaseReward).Methods(http.MethodPost)
	r.HandleFunc("/rewards/{id}/equip", h.EquipReward).Methods(http.MethodPost)
}

// ProgressResponse is the planner state plus where it stands against the remote store.
type ProgressResponse struct {
	Snapshot  models.Snapshot       `json:"snapshot"`
	SyncState persistence.SyncState `json:"sync_state"`
	SignedIn  bool                  `json:"signed_in"`
	Today     string                `json:"today"`
}

// GenerateCalendarRequest carries the syllabus to plan from.
type GenerateCalendarRequest struct {
	Syllabus string `json:"syllabus" validate:"required,syllabus"`
}

// CompleteTaskRequest optionally records how long the task took.
type CompleteTaskRequest struct {
	DurationMinutes int `json:"duration_minutes" validate:"gte=0,lte=1440"`
}

// RecordSessionRequest logs timer-tracked study time.
type RecordSessionRequest struct {
	DurationMinutes int        `json:"duration_minutes" validate:"gte=0,lte=1440"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	TaskDay         *int       `json:"task_day,omitempty" validate:"omitempty,gte=1,lte=24"`
}

// SessionPage is one page of session history.
type SessionPage struct {
	Sessions []models.StudySession `json:"sessions"`
	Total    int                   `json:"total"`
	Offset   int                   `json:"offset"`
	Limit    int                   `json:"limit"`
}

// GetProgress returns the current snapshot
func (h *PlannerHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ProgressResponse{
		Snapshot:  h.planner.Snapshot(),
		SyncState: h.planner.SyncState(),
		SignedIn:  h.planner.UserID() != "",
		Today:     h.planner.Today(),
	})
}

// ResetProgress clears all progress
func (h *PlannerHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.planner.Reset(r.Context()); err != nil {
		respondServiceError(w, h.logger, "reset_progress", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// GenerateCalendar builds a new calendar from a syllabus
func (h *PlannerHandler) GenerateCalendar(w http.ResponseWriter, r *http.Request) {
	var req GenerateCalendarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tasks, err := h.planner.GenerateCalendar(r.Context(), req.Syllabus)
	if err != nil {
		respondServiceError(w, h.logger, "generate_calendar", err)
		return
	}
	respondJSON(w, http.StatusCreated, tasks)
}

// CompleteTask marks a day as done
func (h *PlannerHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	day, err := pathInt(r, "day")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var req CompleteTaskRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.planner.CompleteTask(r.Context(), day, req.DurationMinutes)
	if err != nil {
		respondServiceError(w, h.logger, "complete_task", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RecordSession logs study time without completing a task
func (h *PlannerHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req RecordSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime):
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "end_time must not be before start_time")
		return
	case req.DurationMinutes == 0 && req.StartTime == nil:
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "duration_minutes or start_time is required")
		return
	case req.StartTime != nil && req.EndTime != nil && req.EndTime.Sub(*req.StartTime) > maxSessionMinutes*time.Minute:
		respondJSONError(w, http.StatusBadRequest, "Validation Error", "a session cannot exceed one day")
		return
	}

	in := events.SessionInput{
		DurationMinutes: req.DurationMinutes,
		Start:           req.StartTime,
		End:             req.EndTime,
	}
	if req.TaskDay != nil {
		in.Task = &models.TaskRef{Day: *req.TaskDay}
	}

	session, err := h.planner.RecordSession(r.Context(), in)
	if err != nil {
		respondServiceError(w, h.logger, "record_session", err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// ListSessions pages through session history
func (h *PlannerHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultSessionPageSize)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if limit == 0 || limit > maxSessionPageSize {
		limit = maxSessionPageSize
	}

	sessions, total, err := h.planner.ListSessions(r.Context(), offset, limit)
	if err != nil {
		respondServiceError(w, h.logger, "list_sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.StudySession{}
	}
	respondJSON(w, http.StatusOK, SessionPage{Sessions: sessions, Total: total, Offset: offset, Limit: limit})
}

// GetAnalytics returns the full analytics aggregate
func (h *PlannerHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.Analytics())
}

// GetLast7Days returns one entry per day for the past week
func (h *PlannerHandler) GetLast7Days(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.Last7Days())
}

// GetWeekly returns the current week's summary
func (h *PlannerHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.Weekly())
}

// GamificationResponse pairs the learner's stats with the achievement catalog.
type GamificationResponse struct {
	Stats        models.GamificationStats `json:"stats"`
	Achievements []models.Achievement     `json:"achievements"`
}

// GetGamification returns points, streaks and achievements
func (h *PlannerHandler) GetGamification(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, GamificationResponse{
		Stats:        h.planner.Gamification(),
		Achievements: h.planner.Catalog().Achievements,
	})
}

// GetPrediction returns the completion forecast
func (h *PlannerHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.Forecast())
}

// ListRewards returns the reward shop
func (h *PlannerHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.planner.Rewards())
}

// PurchaseReward unlocks a reward
func (h *PlannerHandler) PurchaseReward(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	changed, err := h.planner.PurchaseReward(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "purchase_reward", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"reward_id":     id,
		"already_owned": !changed,
		"rewards":       h.planner.Rewards(),
	})
}

// EquipReward activates an owned reward
func (h *PlannerHandler) EquipReward(w http.ResponseWriter, r *http.Request) {
	state, err := h.planner.EquipReward(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, h.logger, "equip_reward", err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

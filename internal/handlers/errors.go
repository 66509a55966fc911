package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/study-advent/internal/gamification"
	"github.com/benvon/study-advent/internal/notifications"
	"github.com/benvon/study-advent/internal/planner"
	"github.com/benvon/study-advent/internal/rooms"
	"github.com/benvon/study-advent/internal/services/ai"
	"go.uber.org/zap"
)

// respondServiceError maps domain errors to HTTP responses.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, planner.ErrNoCalendar):
		respondJSONError(w, http.StatusConflict, "No Calendar", err.Error())
	case errors.Is(err, planner.ErrTaskNotFound),
		errors.Is(err, gamification.ErrRewardNotFound),
		errors.Is(err, rooms.ErrRoomNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, planner.ErrTaskLocked),
		errors.Is(err, planner.ErrTaskAlreadyCompleted),
		errors.Is(err, gamification.ErrRewardLocked),
		errors.Is(err, rooms.ErrRoomFull):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, gamification.ErrInsufficientPoints):
		respondJSONError(w, http.StatusPaymentRequired, "Insufficient Points", err.Error())
	case errors.Is(err, notifications.ErrInvalidSettings),
		errors.Is(err, ai.ErrEmptySyllabus):
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
	case errors.Is(err, planner.ErrGeneratorUnavailable):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	case ai.IsQuotaError(err):
		logger.Warn("ai_quota_exhausted", zap.String("operation", op), zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "The study assistant is unavailable right now")
	case ai.IsRateLimitError(err):
		logger.Warn("ai_rate_limited", zap.String("operation", op), zap.Error(err))
		respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "The study assistant is busy, try again shortly")
	case errors.Is(err, ai.ErrIncompleteCalendar):
		logger.Warn("ai_incomplete_calendar", zap.String("operation", op), zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		logger.Error("request_failed", zap.String("operation", op), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

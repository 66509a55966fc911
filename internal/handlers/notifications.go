package handlers

import (
	"net/http"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/notifications"
	"github.com/benvon/study-advent/internal/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NotificationHandler reads and updates reminder settings
type NotificationHandler struct {
	store  storage.Store
	logger *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(store storage.Store, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{store: store, logger: logger}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications/settings", h.GetSettings).Methods(http.MethodGet)
	r.HandleFunc("/notifications/settings", h.UpdateSettings).Methods(http.MethodPut)
}

// GetSettings returns the stored settings, or the defaults
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := notifications.LoadSettings(h.store)
	if err != nil {
		h.logger.Warn("notification_settings_load_failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings replaces the reminder settings
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := notifications.SaveSettings(h.store, req); err != nil {
		respondServiceError(w, h.logger, "update_notification_settings", err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

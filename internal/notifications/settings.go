// Package notifications decides when study reminders are due and hands them to a Notifier.
package notifications

import (
	"errors"
	"fmt"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
	"github.com/benvon/study-advent/internal/validation"
)

// ErrInvalidSettings wraps validation failures from SaveSettings.
var ErrInvalidSettings = errors.New("invalid notification settings")

// LoadSettings reads the stored settings. Missing, corrupt or invalid documents yield the defaults.
func LoadSettings(store storage.Store) (models.NotificationSettings, error) {
	s, err := storage.ReadJSON(store, storage.KeyNotificationSettings, models.DefaultNotificationSettings())
	if err != nil {
		return s, err
	}
	if validation.Validate.Struct(s) != nil {
		return models.DefaultNotificationSettings(), nil
	}
	return s, nil
}

// SaveSettings validates and stores s.
func SaveSettings(store storage.Store, s models.NotificationSettings) error {
	if err := validation.Validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return storage.WriteJSON(store, storage.KeyNotificationSettings, s)
}

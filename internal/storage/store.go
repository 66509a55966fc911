// Package storage provides the device-local key/value store the planner persists into.
package storage

import (
	"encoding/json"
	"fmt"
)

// Fixed keys, one JSON document per namespace.
const (
	KeyProgress             = "advent-calendar-progress"
	KeyAnalytics            = "advent-calendar-analytics"
	KeyNotificationSettings = "advent-calendar-notification-settings"
	KeyNotificationState    = "advent-calendar-notification-state"
	KeyRewards              = "advent-calendar-rewards"
	KeyStudyRooms           = "advent-calendar-study-rooms"
)

// Store is a string-keyed byte store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// ReadJSON decodes the document under key. A missing or unparseable document yields def.
// Only a failing store returns an error, and def is returned with it.
func ReadJSON[T any](s Store, key string, def T) (T, error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, nil
	}
	return v, nil
}

// WriteJSON encodes v under key.
func WriteJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Set(key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

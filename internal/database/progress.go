package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-advent/internal/models"
)

// ProgressRepository stores one snapshot document per user.
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// LoadProgress returns the stored record, or nil when the user has none.
func (r *ProgressRepository) LoadProgress(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	var raw []byte
	record := &models.ProgressRecord{UserID: userID}

	query := `SELECT snapshot, updated_at FROM progress WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	if err := json.Unmarshal(raw, &record.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return record, nil
}

// SaveProgress upserts the user's snapshot.
func (r *ProgressRepository) SaveProgress(ctx context.Context, userID string, snapshot models.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO progress (user_id, snapshot, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, raw, time.Now()); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// DeleteProgress removes the user's record and reports whether one existed.
func (r *ProgressRepository) DeleteProgress(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM progress WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "study-advent:progress:"

// RedisRemote keeps one JSON progress record per user in redis.
type RedisRemote struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRemote creates a redis-backed RemoteStore. A zero ttl keeps records forever.
func NewRedisRemote(client *redis.Client, ttl time.Duration) *RedisRemote {
	return &RedisRemote{client: client, ttl: ttl}
}

func progressKey(userID string) string {
	return redisKeyPrefix + userID
}

func (r *RedisRemote) LoadProgress(ctx context.Context, userID string) (*models.ProgressRecord, error) {
	raw, err := r.client.Get(ctx, progressKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var record models.ProgressRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &record, nil
}

func (r *RedisRemote) SaveProgress(ctx context.Context, userID string, snapshot models.Snapshot) error {
	raw, err := json.Marshal(models.ProgressRecord{
		UserID:    userID,
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := r.client.Set(ctx, progressKey(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (r *RedisRemote) DeleteProgress(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Del(ctx, progressKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete progress: %w", err)
	}
	return n > 0, nil
}

package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/queue"
	"go.uber.org/zap"
)

// Notifier delivers a reminder. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
}

// LogNotifier writes reminders to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID string, note models.Notification) error {
	n.logger.Info("study_reminder",
		zap.String("kind", note.Kind),
		zap.String("title", note.Title),
		zap.String("body", note.Body),
		zap.String("date", note.Date),
		zap.Bool("signed_in", userID != ""),
	)
	return nil
}

// QueueNotifier publishes reminders as jobs for the reminder worker.
type QueueNotifier struct {
	queue queue.JobQueue
	ttl   time.Duration
}

// NewQueueNotifier enqueues onto q. Reminders older than ttl are dropped by the worker.
func NewQueueNotifier(q queue.JobQueue, ttl time.Duration) *QueueNotifier {
	return &QueueNotifier{queue: q, ttl: ttl}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID string, note models.Notification) error {
	if err := n.queue.Enqueue(ctx, queue.NewReminderJob(userID, note, n.ttl)); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	return nil
}

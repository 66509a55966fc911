// Package workers holds the background consumers of the job queue.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-advent/internal/notifications"
	"github.com/benvon/study-advent/internal/queue"
	"go.uber.org/zap"
)

var (
	ErrMissingNotification = errors.New("reminder job has no notification")
	ErrUnknownJobType      = errors.New("unknown job type")
)

// ReminderDispatcher delivers reminder jobs through a Notifier. Delivery is attempted once;
// failures are dead-lettered rather than retried.
type ReminderDispatcher struct {
	notifier notifications.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderDispatcher creates a dispatcher delivering through notifier.
func NewReminderDispatcher(notifier notifications.Notifier, logger *zap.Logger) *ReminderDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderDispatcher{notifier: notifier, logger: logger, now: time.Now}
}

// ProcessJob handles one delivery and settles it with the broker.
func (d *ReminderDispatcher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch {
	case job == nil:
		return d.deadLetter(msg, errors.New("message has no job"))
	case job.Type != queue.JobTypeReminder:
		return d.deadLetter(msg, fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type))
	case job.Notification == nil:
		return d.deadLetter(msg, ErrMissingNotification)
	}

	if job.IsExpired(d.now()) {
		d.logger.Info("reminder_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Notification.Kind),
		)
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack expired reminder: %w", err)
		}
		return nil
	}

	if err := d.notifier.Notify(ctx, job.UserID, *job.Notification); err != nil {
		return d.deadLetter(msg, fmt.Errorf("failed to deliver reminder: %w", err))
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack reminder: %w", err)
	}
	d.logger.Debug("reminder_delivered",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Notification.Kind),
	)
	return nil
}

func (d *ReminderDispatcher) deadLetter(msg queue.MessageInterface, cause error) error {
	if err := msg.Nack(false); err != nil {
		d.logger.Warn("reminder_nack_failed", zap.Error(err))
	}
	return cause
}

// Run consumes reminder jobs from q until ctx is cancelled or the delivery channel closes.
func (d *ReminderDispatcher) Run(ctx context.Context, q queue.JobQueue, prefetch int) error {
	msgs, errs, err := q.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				d.logger.Info("message_channel_closed")
				return nil
			}
			if err := d.ProcessJob(ctx, msg); err != nil {
				fields := []zap.Field{zap.Error(err)}
				if job := msg.GetJob(); job != nil {
					fields = append(fields, zap.String("job_id", job.ID.String()), zap.String("job_type", string(job.Type)))
				}
				d.logger.Error("reminder_job_failed", fields...)
			}
		}
	}
}

package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/gamification"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
	"go.uber.org/zap"
)

const (
	KindDaily  = "daily"
	KindStreak = "streak"

	// StreakReminderHour is the local hour from which an at-risk streak is flagged.
	StreakReminderHour = 20

	DefaultInterval = time.Minute
)

// ProgressSource exposes the planner state the scheduler reads.
type ProgressSource interface {
	Snapshot() models.Snapshot
	UserID() string
}

// Scheduler checks on a fixed interval whether a reminder is due. Each kind fires
// at most once per local calendar day, however often Check runs.
type Scheduler struct {
	mu       sync.Mutex
	store    storage.Store
	progress ProgressSource
	notifier Notifier
	clock    events.Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a scheduler. A non-positive interval uses DefaultInterval.
func NewScheduler(store storage.Store, progress ProgressSource, notifier Notifier, clock events.Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:    store,
		progress: progress,
		notifier: notifier,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.Check(ctx); err != nil {
			s.logger.Error("reminder_check_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check fires every reminder that is due and not yet shown today and returns them.
// A failed delivery is logged and retried on the next check.
func (s *Scheduler) Check(ctx context.Context) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := LoadSettings(s.store)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, nil
	}

	state, err := storage.ReadJSON(s.store, storage.KeyNotificationState, models.NotificationState{})
	if err != nil {
		return nil, err
	}
	if state.LastShown == nil {
		state.LastShown = map[string]string{}
	}

	now := s.clock.Now()
	today := events.FormatDate(now)
	snap := s.progress.Snapshot()
	userID := s.progress.UserID()

	var fired []models.Notification
	for _, n := range due(settings, snap, now) {
		if state.LastShown[n.Kind] == today {
			continue
		}
		if err := s.notifier.Notify(ctx, userID, n); err != nil {
			s.logger.Warn("reminder_delivery_failed", zap.String("kind", n.Kind), zap.Error(err))
			continue
		}
		state.LastShown[n.Kind] = today
		fired = append(fired, n)
	}

	if len(fired) > 0 {
		if err := storage.WriteJSON(s.store, storage.KeyNotificationState, state); err != nil {
			return fired, fmt.Errorf("failed to record reminders: %w", err)
		}
	}
	return fired, nil
}

// due lists the reminders whose conditions hold at now, ignoring what was already shown.
func due(settings models.NotificationSettings, snap models.Snapshot, now time.Time) []models.Notification {
	if snap.Empty() {
		return nil
	}
	today := events.FormatDate(now)
	var out []models.Notification

	if now.Format("15:04") >= settings.DailyReminderTime {
		if task, ok := nextOpenTask(snap.Tasks); ok {
			out = append(out, models.Notification{
				Kind:  KindDaily,
				Title: "Time to study",
				Body:  fmt.Sprintf("Day %d is waiting: %s", task.Day, task.Title),
				Date:  today,
			})
		}
	}

	// at risk: completed yesterday, not yet today
	g := snap.Gamification
	st := gamification.CalculateStreak(g.LastCompletedDate, now)
	if settings.StreakReminder && g.Streak > 0 && st.IsStreakActive && st.ShouldIncrement &&
		events.HourOfDay(now) >= StreakReminderHour {
		out = append(out, models.Notification{
			Kind:  KindStreak,
			Title: "Keep your streak alive",
			Body:  fmt.Sprintf("Finish a task today to keep your %d-day streak.", g.Streak),
			Date:  today,
		})
	}
	return out
}

func nextOpenTask(tasks []models.Task) (models.Task, bool) {
	for _, t := range tasks {
		if t.IsUnlocked && !t.IsCompleted {
			return t, true
		}
	}
	return models.Task{}, false
}

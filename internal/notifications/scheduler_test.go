package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
)

type fakeProgress struct {
	snap   models.Snapshot
	userID string
}

func (f *fakeProgress) Snapshot() models.Snapshot { return f.snap }
func (f *fakeProgress) UserID() string            { return f.userID }

type recordingNotifier struct {
	sent []models.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, n models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func strPtr(s string) *string { return &s }

func calendarSnapshot(streak int, lastCompleted *string) models.Snapshot {
	var snap models.Snapshot
	snap.Tasks = []models.Task{
		{Day: 1, Title: "Limits", IsUnlocked: true, IsCompleted: true},
		{Day: 2, Title: "Derivatives", IsUnlocked: true},
		{Day: 3, Title: "Integrals"},
	}
	snap.Gamification.Streak = streak
	snap.Gamification.LastCompletedDate = lastCompleted
	return snap
}

func newTestScheduler(t *testing.T, at time.Time, snap models.Snapshot, settings models.NotificationSettings) (*Scheduler, *recordingNotifier, *events.FixedClock, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := SaveSettings(store, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	notifier := &recordingNotifier{}
	clock := events.NewFixedClock(at)
	s := NewScheduler(store, &fakeProgress{snap: snap}, notifier, clock, 0, nil)
	return s, notifier, clock, store
}

func enabled(reminderAt string, streak bool) models.NotificationSettings {
	return models.NotificationSettings{Enabled: true, DailyReminderTime: reminderAt, StreakReminder: streak}
}

func TestScheduler_Check(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, 12, 2, 9, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 12, 2, 21, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		at        time.Time
		snap      models.Snapshot
		settings  models.NotificationSettings
		wantKinds []string
	}{
		{
			name:     "disabled",
			at:       morning,
			snap:     calendarSnapshot(0, nil),
			settings: models.DefaultNotificationSettings(),
		},
		{
			name:     "before reminder time",
			at:       morning,
			snap:     calendarSnapshot(0, nil),
			settings: enabled("10:00", true),
		},
		{
			name:      "daily reminder due",
			at:        morning,
			snap:      calendarSnapshot(0, nil),
			settings:  enabled("09:00", true),
			wantKinds: []string{KindDaily},
		},
		{
			name:     "no calendar",
			at:       morning,
			settings: enabled("09:00", true),
		},
		{
			name:      "streak at risk in the evening",
			at:        evening,
			snap:      calendarSnapshot(3, strPtr("2024-12-01")),
			settings:  enabled("09:00", true),
			wantKinds: []string{KindDaily, KindStreak},
		},
		{
			name:      "streak already extended today",
			at:        evening,
			snap:      calendarSnapshot(3, strPtr("2024-12-02")),
			settings:  enabled("09:00", true),
			wantKinds: []string{KindDaily},
		},
		{
			name:      "streak already broken",
			at:        evening,
			snap:      calendarSnapshot(3, strPtr("2024-11-29")),
			settings:  enabled("09:00", true),
			wantKinds: []string{KindDaily},
		},
		{
			name:      "streak reminder turned off",
			at:        evening,
			snap:      calendarSnapshot(3, strPtr("2024-12-01")),
			settings:  enabled("09:00", false),
			wantKinds: []string{KindDaily},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, notifier, _, _ := newTestScheduler(t, tt.at, tt.snap, tt.settings)

			fired, err := s.Check(context.Background())
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if len(fired) != len(tt.wantKinds) || len(notifier.sent) != len(tt.wantKinds) {
				t.Fatalf("Expected %d reminders, got %d (sent %d)", len(tt.wantKinds), len(fired), len(notifier.sent))
			}
			for i, kind := range tt.wantKinds {
				if fired[i].Kind != kind {
					t.Errorf("Expected reminder %d to be %s, got %s", i, kind, fired[i].Kind)
				}
				if fired[i].Date != "2024-12-02" {
					t.Errorf("Expected date 2024-12-02, got %s", fired[i].Date)
				}
			}
		})
	}
}

func TestScheduler_FiresOncePerDay(t *testing.T) {
	t.Parallel()

	s, notifier, clock, _ := newTestScheduler(t, time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC), calendarSnapshot(0, nil), enabled("09:00", false))

	for i := 0; i < 5; i++ {
		if _, err := s.Check(context.Background()); err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		clock.Advance(time.Minute)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("Expected one reminder for the day, got %d", len(notifier.sent))
	}

	clock.Set(time.Date(2024, 12, 3, 9, 0, 0, 0, time.UTC))
	if _, err := s.Check(context.Background()); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("Expected a new reminder the next day, got %d total", len(notifier.sent))
	}
}

func TestScheduler_FailedDeliveryRetries(t *testing.T) {
	t.Parallel()

	s, notifier, _, store := newTestScheduler(t, time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC), calendarSnapshot(0, nil), enabled("09:00", false))
	notifier.err = errors.New("webhook down")

	fired, err := s.Check(context.Background())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("Expected nothing fired, got %d", len(fired))
	}
	if _, ok, _ := store.Get(storage.KeyNotificationState); ok {
		t.Error("Expected no state recorded after a failed delivery")
	}

	notifier.err = nil
	if fired, _ = s.Check(context.Background()); len(fired) != 1 {
		t.Errorf("Expected the reminder on retry, got %d", len(fired))
	}
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestScheduler(t, time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC), calendarSnapshot(0, nil), enabled("09:00", false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

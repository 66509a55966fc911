// Package planner owns the study calendar state and routes every change through
// analytics, gamification and persistence in one place.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/study-advent/internal/analytics"
	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/gamification"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/persistence"
	"github.com/benvon/study-advent/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNoCalendar           = errors.New("no calendar has been generated")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskLocked           = errors.New("task is still locked")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrGeneratorUnavailable = errors.New("task generation is not configured")
)

// TaskGenerator turns a syllabus into a calendar.
type TaskGenerator interface {
	GenerateTasks(ctx context.Context, syllabus string) ([]models.Task, error)
}

// Planner is the single writer of planner state. All methods are safe for concurrent use.
type Planner struct {
	mu sync.Mutex

	store     storage.Store
	persister *persistence.Persister
	generator TaskGenerator
	logger    *zap.Logger

	clock      events.Clock
	sessions   analytics.SessionLog
	catalog    gamification.Catalog
	targetDays int

	snapshot models.Snapshot
	userID   string
	// set while the bound user's remote record could not be read; saves stay local
	unreconciled bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces the system clock.
func WithClock(c events.Clock) Option {
	return func(p *Planner) { p.clock = c }
}

// WithSessionLog replaces the in-memory session history.
func WithSessionLog(l analytics.SessionLog) Option {
	return func(p *Planner) { p.sessions = l }
}

// WithCatalog replaces the built-in achievement and reward catalog.
func WithCatalog(c gamification.Catalog) Option {
	return func(p *Planner) { p.catalog = c }
}

// WithTargetDays sets how many days after the start date the calendar should be finished.
func WithTargetDays(days int) Option {
	return func(p *Planner) {
		if days > 0 {
			p.targetDays = days
		}
	}
}

// New creates a planner with empty state. Call Restore to load persisted state.
// generator may be nil, in which case GenerateCalendar fails.
func New(store storage.Store, persister *persistence.Persister, generator TaskGenerator, logger *zap.Logger, opts ...Option) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Planner{
		store:      store,
		persister:  persister,
		generator:  generator,
		logger:     logger,
		clock:      events.NewSystemClock(nil),
		sessions:   analytics.NewSliceLog(),
		catalog:    gamification.DefaultCatalog(),
		targetDays: models.CalendarDays,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.snapshot = p.emptySnapshot()
	return p
}

func (p *Planner) emptySnapshot() models.Snapshot {
	return models.Snapshot{
		ProgressState: models.ProgressState{
			Tasks:        []models.Task{},
			Gamification: p.catalog.NewStats(),
		},
		Analytics: models.NewAnalyticsData(),
	}
}

// Restore loads the authoritative snapshot for the current identity.
func (p *Planner) Restore(ctx context.Context) persistence.Source {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap, source, err := p.persister.Load(ctx, p.userID)
	p.unreconciled = err != nil
	if snap == nil {
		p.snapshot = p.emptySnapshot()
	} else {
		p.snapshot = p.normalize(*snap)
	}
	p.refreshUnlocks()

	p.logger.Info("planner_restored",
		zap.String("source", string(source)),
		zap.Int("tasks", len(p.snapshot.Tasks)),
		zap.Int("completed_count", p.snapshot.CompletedCount),
	)
	return source
}

// normalize fills in anything an older or partial snapshot may lack.
func (p *Planner) normalize(snap models.Snapshot) models.Snapshot {
	out := snap.Clone()
	if out.Tasks == nil {
		out.Tasks = []models.Task{}
	}
	if out.Analytics.Sessions == nil {
		out.Analytics.Sessions = []models.StudySession{}
	}
	if out.Analytics.DailyStats == nil {
		out.Analytics.DailyStats = []models.DailyStats{}
	}
	// achievements added to the catalog after the snapshot was written start locked
	fresh := p.catalog.NewStats()
	for _, a := range fresh.Achievements {
		if !hasAchievement(out.Gamification.Achievements, a.ID) {
			out.Gamification.Achievements = append(out.Gamification.Achievements, a)
		}
	}
	return out
}

func hasAchievement(list []models.Achievement, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

// SignIn binds the planner to a remote identity. A remote snapshot replaces local state;
// otherwise local state is pushed to the remote. When the remote cannot be read, the
// identity is bound but nothing is pushed until a later sign-in succeeds.
func (p *Planner) SignIn(ctx context.Context, userID string) persistence.Source {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.userID = userID
	snap, source, err := p.persister.Load(ctx, userID)
	p.unreconciled = err != nil
	switch {
	case err != nil:
		source = persistence.SourceUnavailable
	case source == persistence.SourceRemote && snap != nil:
		p.snapshot = p.normalize(*snap)
		p.refreshUnlocks()
		p.persister.SaveLocal(p.snapshot)
	case !p.snapshot.Empty():
		p.persister.Save(ctx, p.userID, p.snapshot)
	}

	p.logger.Info("planner_signed_in", zap.String("source", string(source)))
	return source
}

// SignOut unbinds the remote identity. Local state is kept.
func (p *Planner) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userID = ""
	p.unreconciled = false
}

// UserID returns the bound remote identity, or "".
func (p *Planner) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// SyncState reports how the current state relates to the remote store.
func (p *Planner) SyncState() persistence.SyncState {
	return p.persister.State()
}

// Snapshot returns a copy of the current state with unlocks and streaks brought up to date.
func (p *Planner) Snapshot() models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshUnlocks()
	snap := p.snapshot.Clone()
	snap.Analytics = analytics.Refresh(snap.Analytics, events.Today(p.clock))
	return snap
}

// GenerateCalendar replaces the calendar with one generated from syllabus.
// Completion progress restarts; lifetime gamification and analytics are kept.
func (p *Planner) GenerateCalendar(ctx context.Context, syllabus string) ([]models.Task, error) {
	if p.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	// generation is slow; state is only locked to apply the result
	tasks, err := p.generator.GenerateTasks(ctx, syllabus)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	start := now
	p.snapshot.Tasks = models.CloneTasks(tasks)
	for i := range p.snapshot.Tasks {
		p.snapshot.Tasks[i].IsUnlocked = false
		p.snapshot.Tasks[i].IsCompleted = false
		p.snapshot.Tasks[i].CompletedAt = nil
	}
	p.snapshot.CompletedCount = 0
	p.snapshot.SyllabusText = syllabus
	p.snapshot.StartDate = &start
	p.refreshUnlocks()
	p.touch(ctx, now)

	p.logger.Info("calendar_generated", zap.Int("tasks", len(p.snapshot.Tasks)))
	return models.CloneTasks(p.snapshot.Tasks), nil
}

// CompletionResult describes the effects of completing a task.
type CompletionResult struct {
	Task            models.Task          `json:"task"`
	Session         models.StudySession  `json:"session"`
	NewAchievements []models.Achievement `json:"new_achievements"`
	Points          int                  `json:"points"`
	Streak          int                  `json:"streak"`
	CompletedCount  int                  `json:"completed_count"`
}

// CompleteTask marks day as done, records a session of durationMinutes ending now,
// and applies points, streak and achievements.
func (p *Planner) CompleteTask(ctx context.Context, day, durationMinutes int) (*CompletionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.snapshot.Empty() {
		return nil, ErrNoCalendar
	}
	p.refreshUnlocks()

	idx := p.taskIndex(day)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}
	task := &p.snapshot.Tasks[idx]
	if !task.IsUnlocked {
		return nil, ErrTaskLocked
	}
	if task.IsCompleted {
		return nil, ErrTaskAlreadyCompleted
	}

	now := p.clock.Now()
	session := events.NewSession(p.clock, events.SessionInput{
		DurationMinutes: durationMinutes,
		Task:            &models.TaskRef{Day: task.Day, Title: task.Title},
		Completed:       true,
	})

	completedAt := now
	task.IsCompleted = true
	task.CompletedAt = &completedAt
	p.snapshot.CompletedCount++

	p.snapshot.Analytics = analytics.AddSession(p.snapshot.Analytics, session, events.Today(p.clock))

	var unlocked []models.Achievement
	p.snapshot.Gamification, unlocked = gamification.ApplyCompletion(p.catalog, p.snapshot.Gamification, p.snapshot.CompletedCount, now)

	p.appendSession(ctx, session)
	p.touch(ctx, now)

	p.logger.Info("task_completed",
		zap.Int("day", day),
		zap.Int("duration_minutes", session.Duration),
		zap.Int("points", p.snapshot.Gamification.Points),
		zap.Int("streak", p.snapshot.Gamification.Streak),
		zap.Int("new_achievements", len(unlocked)),
	)

	if unlocked == nil {
		unlocked = []models.Achievement{}
	}
	return &CompletionResult{
		Task:            *task,
		Session:         session,
		NewAchievements: unlocked,
		Points:          p.snapshot.Gamification.Points,
		Streak:          p.snapshot.Gamification.Streak,
		CompletedCount:  p.snapshot.CompletedCount,
	}, nil
}

// RecordSession logs study time that does not complete a task.
// A task reference, if given, must name an existing day; its title is filled in.
func (p *Planner) RecordSession(ctx context.Context, in events.SessionInput) (models.StudySession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	in.Completed = false
	if in.Task != nil {
		idx := p.taskIndex(in.Task.Day)
		if idx < 0 {
			return models.StudySession{}, ErrTaskNotFound
		}
		in.Task = &models.TaskRef{Day: p.snapshot.Tasks[idx].Day, Title: p.snapshot.Tasks[idx].Title}
	}

	session := events.NewSession(p.clock, in)
	p.snapshot.Analytics = analytics.AddSession(p.snapshot.Analytics, session, events.Today(p.clock))

	p.appendSession(ctx, session)
	p.touch(ctx, p.clock.Now())

	p.logger.Info("session_recorded", zap.Int("duration_minutes", session.Duration), zap.String("date", session.Date))
	return session, nil
}

// Reset clears all progress locally and, when signed in, remotely.
// Notification settings and room membership are preferences and survive.
func (p *Planner) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if err := p.persister.Clear(ctx, p.userID); err != nil {
		errs = append(errs, err)
	} else {
		// the remote record is gone, so there is nothing left to overwrite
		p.unreconciled = false
	}
	if err := p.sessions.Clear(ctx); err != nil {
		p.logger.Error("session_log_clear_failed", zap.Error(err))
		errs = append(errs, err)
	}
	if err := p.store.Remove(storage.KeyRewards); err != nil {
		p.logger.Error("reward_state_clear_failed", zap.Error(err))
		errs = append(errs, err)
	}

	p.snapshot = p.emptySnapshot()
	p.logger.Info("planner_reset")

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to reset planner: %w", err)
	}
	return nil
}

// ListSessions pages through the session history, oldest first.
func (p *Planner) ListSessions(ctx context.Context, offset, limit int) ([]models.StudySession, int, error) {
	return p.sessions.List(ctx, offset, limit)
}

// Today returns the planner's current calendar date.
func (p *Planner) Today() string {
	return events.Today(p.clock)
}

// Now returns the planner clock's current time.
func (p *Planner) Now() time.Time {
	return p.clock.Now()
}

// Location returns the planner clock's location.
func (p *Planner) Location() *time.Location {
	return p.clock.Location()
}

// Catalog returns the achievement and reward catalog.
func (p *Planner) Catalog() gamification.Catalog {
	return p.catalog
}

func (p *Planner) taskIndex(day int) int {
	for i, t := range p.snapshot.Tasks {
		if t.Day == day {
			return i
		}
	}
	return -1
}

// refreshUnlocks opens every task whose day has arrived. Unlocking never reverts.
func (p *Planner) refreshUnlocks() {
	if p.snapshot.StartDate == nil {
		return
	}
	elapsed := events.DaysBetween(p.snapshot.StartDate.In(p.clock.Location()), p.clock.Now())
	for i := range p.snapshot.Tasks {
		t := &p.snapshot.Tasks[i]
		if !t.IsUnlocked && elapsed >= t.Day-1 {
			t.IsUnlocked = true
		}
	}
}

func (p *Planner) appendSession(ctx context.Context, session models.StudySession) {
	if err := p.sessions.Append(ctx, session); err != nil {
		p.logger.Error("session_log_append_failed", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}

// touch stamps and persists the snapshot. Must be called with mu held.
func (p *Planner) touch(ctx context.Context, now time.Time) {
	p.snapshot.UpdatedAt = now
	p.persister.Save(ctx, p.mirrorID(), p.snapshot)
}

// mirrorID is the identity saves are mirrored to. Must be called with mu held.
func (p *Planner) mirrorID() string {
	if p.unreconciled {
		return ""
	}
	return p.userID
}

// Package gamification derives points, streaks, achievements and reward unlocks from task completions.
package gamification

import (
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
)

const (
	PointsPerTask      = 10
	PointsPerStreakDay = 5
)

// CalculatePoints returns completedCount*10 + streak*5.
func CalculatePoints(completedCount, streak int) int {
	return completedCount*PointsPerTask + streak*PointsPerStreakDay
}

// StreakState tells the caller how a completion at "now" affects the streak.
type StreakState struct {
	IsStreakActive  bool `json:"is_streak_active"`
	ShouldIncrement bool `json:"should_increment"`
}

// CalculateStreak compares the last completion with now in calendar days of now's location.
// lastCompletedDate may be a YYYY-MM-DD date or an RFC 3339 timestamp; nil or
// unparseable values count as "never completed". A last date in the future is
// treated like a same-day completion.
func CalculateStreak(lastCompletedDate *string, now time.Time) StreakState {
	if lastCompletedDate == nil {
		return StreakState{IsStreakActive: false, ShouldIncrement: true}
	}
	last, ok := parseCompletionDate(*lastCompletedDate, now.Location())
	if !ok {
		return StreakState{IsStreakActive: false, ShouldIncrement: true}
	}

	switch gap := events.DaysBetween(last, now); {
	case gap <= 0:
		return StreakState{IsStreakActive: true, ShouldIncrement: false}
	case gap == 1:
		return StreakState{IsStreakActive: true, ShouldIncrement: true}
	default:
		return StreakState{IsStreakActive: false, ShouldIncrement: true}
	}
}

// NextStreak applies a StreakState to the previous streak value.
func NextStreak(prev int, st StreakState) int {
	if !st.ShouldIncrement {
		return prev
	}
	if st.IsStreakActive {
		return prev + 1
	}
	return 1
}

func parseCompletionDate(value string, loc *time.Location) (time.Time, bool) {
	if t, err := time.ParseInLocation(events.DateLayout, value, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// ApplyCompletion records one task completion at "at" and returns the new stats along
// with any achievements it unlocked. completedCount is the number of completed
// tasks in the current calendar, including this one.
// Points never drop below their previous value.
func ApplyCompletion(c Catalog, stats models.GamificationStats, completedCount int, at time.Time) (models.GamificationStats, []models.Achievement) {
	next := stats.Clone()

	next.Streak = NextStreak(next.Streak, CalculateStreak(next.LastCompletedDate, at))
	next.TotalCompleted++
	date := events.FormatDate(at)
	next.LastCompletedDate = &date

	switch hour := events.HourOfDay(at); {
	case hour < 12:
		next.EarlyCompletions++
	case hour >= 20:
		next.LateCompletions++
	}

	next.Points = max(next.Points, CalculatePoints(next.TotalCompleted, next.Streak))

	unlocked := c.CheckAchievements(next, completedCount, &at)
	next = UnlockAchievements(next, unlocked)
	return next, unlocked
}

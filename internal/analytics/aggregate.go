// Package analytics folds study sessions into running daily, hourly and streak statistics.
package analytics

import (
	"math"
	"sort"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
)

// AddSession folds session into current and returns the new aggregate.
// current is never modified. today (YYYY-MM-DD) anchors the current streak.
// Input is trusted: durations and hours are validated by callers.
func AddSession(current models.AnalyticsData, session models.StudySession, today string) models.AnalyticsData {
	next := current.Clone()
	next.Sessions = append(next.Sessions, session)

	day := bucketFor(&next, session.Date)
	day.TotalStudyTime += session.Duration
	day.SessionsCount++
	if session.Completed {
		day.TasksCompleted++
	}
	day.FocusScore = FocusScore(day.TasksCompleted, day.SessionsCount)

	if session.HourOfDay >= 0 && session.HourOfDay < models.HoursPerDay {
		next.ProductivityByHour[session.HourOfDay] += session.Duration
	}

	recomputeTotals(&next)
	next.CurrentStreak = CurrentStreak(next.DailyStats, today)
	next.LongestStreak = max(current.LongestStreak, LongestStreak(next.DailyStats), next.CurrentStreak)
	return next
}

// Refresh recomputes the streak counters relative to today without adding a session.
// The stored current streak goes stale as days pass with no new sessions.
func Refresh(current models.AnalyticsData, today string) models.AnalyticsData {
	next := current.Clone()
	next.CurrentStreak = CurrentStreak(next.DailyStats, today)
	next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	return next
}

// FocusScore is the share of sessions that completed a task, as a rounded percentage.
func FocusScore(tasksCompleted, sessionsCount int) int {
	if sessionsCount <= 0 {
		return 0
	}
	return percent(tasksCompleted, sessionsCount)
}

// bucketFor returns the stats bucket for date, inserting it in date order if missing.
func bucketFor(data *models.AnalyticsData, date string) *models.DailyStats {
	i := sort.Search(len(data.DailyStats), func(i int) bool {
		return data.DailyStats[i].Date >= date
	})
	if i < len(data.DailyStats) && data.DailyStats[i].Date == date {
		return &data.DailyStats[i]
	}
	data.DailyStats = append(data.DailyStats, models.DailyStats{})
	copy(data.DailyStats[i+1:], data.DailyStats[i:])
	data.DailyStats[i] = models.DailyStats{Date: date}
	return &data.DailyStats[i]
}

func recomputeTotals(data *models.AnalyticsData) {
	var minutes, completed, sessions int
	for _, d := range data.DailyStats {
		minutes += d.TotalStudyTime
		completed += d.TasksCompleted
		sessions += d.SessionsCount
	}
	data.TotalStudyTime = minutes
	data.TotalTasksCompleted = completed
	data.AverageSessionDuration = 0
	data.CompletionRate = 0
	if sessions > 0 {
		data.AverageSessionDuration = int(math.Round(float64(minutes) / float64(sessions)))
		data.CompletionRate = percent(completed, sessions)
	}
}

// CurrentStreak counts consecutive days with at least one completed task, walking back from today.
// A day with no entry or with zero completions ends the walk, so a streak that
// ended yesterday reports 0 until something is completed today.
func CurrentStreak(daily []models.DailyStats, today string) int {
	byDate := make(map[string]models.DailyStats, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d
	}
	streak := 0
	for day := today; ; day = events.AddDays(day, -1) {
		d, ok := byDate[day]
		if !ok || d.TasksCompleted == 0 {
			return streak
		}
		streak++
	}
}

// LongestStreak returns the longest run of stored entries with completions, in date order.
// The run resets on entries with zero completions. Entries are not checked for
// date contiguity, so two active days separated by a day with no sessions at all
// still count as one run.
func LongestStreak(daily []models.DailyStats) int {
	sorted := append([]models.DailyStats{}, daily...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	best, run := 0, 0
	for _, d := range sorted {
		if d.TasksCompleted == 0 {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}
	return best
}

func percent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

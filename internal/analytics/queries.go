package analytics

import (
	"math"
	"time"

	"github.com/benvon/study-advent/internal/events"
	"github.com/benvon/study-advent/internal/models"
)

// Last7DaysStats returns one entry per day for the week ending today, oldest first.
// Days without sessions are zero-filled.
func Last7DaysStats(data models.AnalyticsData, today string) []models.DailyStats {
	byDate := make(map[string]models.DailyStats, len(data.DailyStats))
	for _, d := range data.DailyStats {
		byDate[d.Date] = d
	}
	out := make([]models.DailyStats, 0, 7)
	for i := 6; i >= 0; i-- {
		date := events.AddDays(today, -i)
		if d, ok := byDate[date]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, models.DailyStats{Date: date})
	}
	return out
}

// WeeklySummary aggregates the Sunday-start calendar week containing a date.
type WeeklySummary struct {
	WeekStart          string `json:"week_start"`
	WeekEnd            string `json:"week_end"`
	TotalTime          int    `json:"total_time"`
	TasksCompleted     int    `json:"tasks_completed"`
	SessionsCount      int    `json:"sessions_count"`
	DailyAverage       int    `json:"daily_average"`
	MostProductiveDay  string `json:"most_productive_day"`  // weekday name, empty if no study
	MostProductiveHour int    `json:"most_productive_hour"` // -1 if no study
}

// WeeklyStats summarizes the current week. The daily average spreads the total over all 7 days.
func WeeklyStats(data models.AnalyticsData, today string) WeeklySummary {
	start := events.StartOfWeek(today)
	end := events.AddDays(start, 6)
	summary := WeeklySummary{WeekStart: start, WeekEnd: end, MostProductiveHour: -1}

	bestMinutes := 0
	for _, d := range data.DailyStats {
		if d.Date < start || d.Date > end {
			continue
		}
		summary.TotalTime += d.TotalStudyTime
		summary.TasksCompleted += d.TasksCompleted
		summary.SessionsCount += d.SessionsCount
		if d.TotalStudyTime > bestMinutes {
			bestMinutes = d.TotalStudyTime
			summary.MostProductiveDay = d.Date
		}
	}
	if summary.MostProductiveDay != "" {
		if t, err := time.Parse(events.DateLayout, summary.MostProductiveDay); err == nil {
			summary.MostProductiveDay = t.Weekday().String()
		}
	}
	summary.DailyAverage = int(math.Round(float64(summary.TotalTime) / 7))

	var hours [models.HoursPerDay]int
	for _, s := range data.Sessions {
		if s.Date < start || s.Date > end || s.HourOfDay < 0 || s.HourOfDay >= models.HoursPerDay {
			continue
		}
		hours[s.HourOfDay] += s.Duration
	}
	bestHour := 0
	for h, minutes := range hours {
		if minutes > bestHour {
			bestHour = minutes
			summary.MostProductiveHour = h
		}
	}
	return summary
}

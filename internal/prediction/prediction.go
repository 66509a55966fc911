// Package prediction projects when a study calendar will be finished from the pace so far.
package prediction

import (
	"fmt"
	"math"
	"time"
)

// NoProgressDays is reported as days needed when there is no pace to extrapolate from.
const NoProgressDays = 999

const day = 24 * time.Hour

// Status classifies a forecast for display.
type Status string

const (
	StatusNoCalendar Status = "no_calendar"
	StatusComplete   Status = "complete"
	StatusAhead      Status = "ahead"
	StatusOnTrack    Status = "on_track"
	StatusBehind     Status = "behind"
	StatusUrgent     Status = "urgent"
)

// Confidence is a coarse tier based on how much of the calendar is done.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Prediction is a completion forecast. Day counts are never negative except DaysAhead.
type Prediction struct {
	Completed       int        `json:"completed"`
	Total           int        `json:"total"`
	TasksRemaining  int        `json:"tasks_remaining"`
	DaysElapsed     int        `json:"days_elapsed"`
	DaysUntilTarget int        `json:"days_until_target"`
	CurrentPace     float64    `json:"current_pace"`
	RequiredPace    float64    `json:"required_pace"`
	DaysNeeded      int        `json:"days_needed"`
	ProjectedDate   time.Time  `json:"projected_date"`
	TargetDate      time.Time  `json:"target_date"`
	DaysAhead       int        `json:"days_ahead"`
	Confidence      Confidence `json:"confidence"`
	Status          Status     `json:"status"`
	Color           string     `json:"color"`
	Emoji           string     `json:"emoji"`
	Message         string     `json:"message"`
}

// CalculateProgressPrediction forecasts completion at "now" for a calendar started at startDate
// that should be done by targetDate. Days needed round up; days ahead round to nearest.
func CalculateProgressPrediction(completed, total int, startDate, targetDate, now time.Time) Prediction {
	p := Prediction{
		Completed:      completed,
		Total:          total,
		TasksRemaining: max(total-completed, 0),
		TargetDate:     targetDate,
		Confidence:     confidence(completed, total),
	}

	p.DaysElapsed = max(1, ceilDays(now.Sub(startDate)))
	p.CurrentPace = float64(completed) / float64(p.DaysElapsed)

	p.DaysUntilTarget = max(0, ceilDays(targetDate.Sub(now)))
	if p.DaysUntilTarget > 0 {
		p.RequiredPace = float64(p.TasksRemaining) / float64(p.DaysUntilTarget)
	} else {
		p.RequiredPace = float64(p.TasksRemaining)
	}

	switch {
	case p.TasksRemaining == 0:
		p.DaysNeeded = 0
	case p.CurrentPace > 0:
		p.DaysNeeded = int(math.Ceil(float64(p.TasksRemaining) / p.CurrentPace))
	default:
		p.DaysNeeded = NoProgressDays
	}
	p.ProjectedDate = now.Add(time.Duration(p.DaysNeeded) * day)
	p.DaysAhead = int(math.Round(targetDate.Sub(p.ProjectedDate).Hours() / 24))

	p.Status, p.Color, p.Emoji, p.Message = classify(p)
	return p
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

func confidence(completed, total int) Confidence {
	switch {
	case total <= 0:
		return ConfidenceLow
	case completed*2 >= total:
		return ConfidenceHigh
	case completed*4 >= total:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func classify(p Prediction) (Status, string, string, string) {
	switch {
	case p.Total <= 0:
		return StatusNoCalendar, "gray", "📅", "Generate a calendar to see your forecast."
	case p.Completed >= p.Total:
		return StatusComplete, "gold", "🎉", "All tasks complete! Your calendar is finished."
	case p.DaysAhead >= 3:
		return StatusAhead, "green", "🚀", fmt.Sprintf("You're %d days ahead of schedule!", p.DaysAhead)
	case p.DaysAhead >= 0:
		return StatusOnTrack, "blue", "✅", "You're on track to finish on time."
	case p.DaysAhead >= -3:
		return StatusBehind, "orange", "⚠️", fmt.Sprintf("You're %d days behind. Pick up the pace a little.", -p.DaysAhead)
	default:
		return StatusUrgent, "red", "🚨", fmt.Sprintf("You're %d days behind. Aim for %.1f tasks per day to catch up.", -p.DaysAhead, p.RequiredPace)
	}
}

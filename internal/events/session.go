package events

import (
	"math"
	"time"

	"github.com/benvon/study-advent/internal/models"
	"github.com/google/uuid"
)

// SessionInput describes a study action before it becomes an immutable session.
type SessionInput struct {
	DurationMinutes int
	Start           *time.Time
	End             *time.Time
	Task            *models.TaskRef
	Completed       bool
}

// NewSession builds a session from a completion or timer action.
// End defaults to now and Start to End minus the duration. When both ends are
// given and no duration is, the duration is derived from them.
// Date and hour bucket come from Start in the clock's location.
func NewSession(c Clock, in SessionInput) models.StudySession {
	loc := c.Location()
	end := c.Now()
	if in.End != nil {
		end = *in.End
	}
	end = end.In(loc)

	duration := max(in.DurationMinutes, 0)
	var start time.Time
	if in.Start != nil {
		start = in.Start.In(loc)
		if duration == 0 {
			duration = max(int(math.Round(end.Sub(start).Minutes())), 0)
		}
	} else {
		start = end.Add(-time.Duration(duration) * time.Minute)
	}

	var task *models.TaskRef
	if in.Task != nil {
		ref := *in.Task
		task = &ref
	}

	return models.StudySession{
		ID:        uuid.New(),
		StartTime: start,
		EndTime:   end,
		Duration:  duration,
		Task:      task,
		Completed: in.Completed,
		Date:      FormatDate(start),
		HourOfDay: HourOfDay(start),
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// StudySession is one recorded study event. Sessions are append-only and never mutated.
type StudySession struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"` // minutes
	Task      *TaskRef  `json:"task,omitempty"`
	Completed bool      `json:"completed"`
	Date      string    `json:"date"`        // YYYY-MM-DD of StartTime, local time
	HourOfDay int       `json:"hour_of_day"` // 0-23 of StartTime, local time
}

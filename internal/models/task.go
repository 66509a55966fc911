package models

import "time"

// CalendarDays is the number of study tasks in one advent calendar.
const CalendarDays = 24

// Task is one day of the study calendar.
type Task struct {
	Day         int        `json:"day"`
	Title       string     `json:"title"`
	IsUnlocked  bool       `json:"is_unlocked"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskRef links a study session back to the task it was spent on.
type TaskRef struct {
	Day   int    `json:"day"`
	Title string `json:"title"`
}

// CloneTasks returns a deep copy of tasks.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
		if t.CompletedAt != nil {
			at := *t.CompletedAt
			out[i].CompletedAt = &at
		}
	}
	return out
}

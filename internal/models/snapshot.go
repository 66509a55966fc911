package models

import "time"

// ProgressState is everything in a snapshot except analytics.
// Locally it is stored under its own key, apart from the analytics aggregate.
type ProgressState struct {
	Tasks          []Task            `json:"tasks"`
	CompletedCount int               `json:"completed_count"`
	SyllabusText   string            `json:"syllabus_text"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	Gamification   GamificationStats `json:"gamification"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Snapshot is the combined planner state handed to persistence.
type Snapshot struct {
	ProgressState
	Analytics AnalyticsData `json:"analytics"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Tasks = CloneTasks(s.Tasks)
	if s.StartDate != nil {
		d := *s.StartDate
		out.StartDate = &d
	}
	out.Gamification = s.Gamification.Clone()
	out.Analytics = s.Analytics.Clone()
	return out
}

// Empty reports whether no calendar has been generated yet.
func (s Snapshot) Empty() bool {
	return len(s.Tasks) == 0
}

// ProgressRecord is the remote representation of a snapshot.
type ProgressRecord struct {
	UserID    string    `json:"user_id"`
	Snapshot  Snapshot  `json:"snapshot"`
	UpdatedAt time.Time `json:"updated_at"`
}

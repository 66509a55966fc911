package models

// HoursPerDay is the size of the hourly productivity histogram.
const HoursPerDay = 24

// DailyStats aggregates all sessions recorded on one calendar date.
type DailyStats struct {
	Date           string `json:"date"`
	TotalStudyTime int    `json:"total_study_time"`
	TasksCompleted int    `json:"tasks_completed"`
	SessionsCount  int    `json:"sessions_count"`
	FocusScore     int    `json:"focus_score"`
}

// AnalyticsData is the aggregate root for study analytics.
type AnalyticsData struct {
	Sessions               []StudySession   `json:"sessions"`
	DailyStats             []DailyStats     `json:"daily_stats"`
	TotalStudyTime         int              `json:"total_study_time"`
	TotalTasksCompleted    int              `json:"total_tasks_completed"`
	CurrentStreak          int              `json:"current_streak"`
	LongestStreak          int              `json:"longest_streak"`
	AverageSessionDuration int              `json:"average_session_duration"`
	ProductivityByHour     [HoursPerDay]int `json:"productivity_by_hour"`
	CompletionRate         int              `json:"completion_rate"`
}

// NewAnalyticsData returns an empty aggregate.
func NewAnalyticsData() AnalyticsData {
	return AnalyticsData{
		Sessions:   []StudySession{},
		DailyStats: []DailyStats{},
	}
}

// Clone returns a copy that shares no slices with a.
func (a AnalyticsData) Clone() AnalyticsData {
	out := a
	out.Sessions = append([]StudySession{}, a.Sessions...)
	out.DailyStats = append([]DailyStats{}, a.DailyStats...)
	return out
}

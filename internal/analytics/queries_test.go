package analytics

import (
	"testing"

	"github.com/benvon/study-advent/internal/models"
)

func TestLast7DaysStats(t *testing.T) {
	t.Parallel()

	data := models.NewAnalyticsData()
	data = AddSession(data, session("2024-12-01", 10, 30, true), "2024-12-05")
	data = AddSession(data, session("2024-12-05", 10, 15, false), "2024-12-05")
	data = AddSession(data, session("2024-11-20", 10, 99, true), "2024-12-05")

	got := Last7DaysStats(data, "2024-12-05")

	if len(got) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(got))
	}
	if got[0].Date != "2024-11-29" || got[6].Date != "2024-12-05" {
		t.Errorf("Expected range 2024-11-29..2024-12-05, got %s..%s", got[0].Date, got[6].Date)
	}
	if got[2].TotalStudyTime != 30 {
		t.Errorf("Expected 30 minutes on 2024-12-01, got %d", got[2].TotalStudyTime)
	}
	if got[3].SessionsCount != 0 || got[3].TotalStudyTime != 0 {
		t.Errorf("Expected zero-filled entry for 2024-12-02, got %+v", got[3])
	}
	for _, d := range got {
		if d.Date == "2024-11-20" {
			t.Error("Expected entries outside the window to be excluded")
		}
	}
}

func TestWeeklyStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sessions []models.StudySession
		today    string
		validate func(*testing.T, WeeklySummary)
	}{
		{
			name:  "empty week",
			today: "2024-12-04",
			validate: func(t *testing.T, w WeeklySummary) {
				if w.WeekStart != "2024-12-01" || w.WeekEnd != "2024-12-07" {
					t.Errorf("Expected week 2024-12-01..2024-12-07, got %s..%s", w.WeekStart, w.WeekEnd)
				}
				if w.MostProductiveDay != "" || w.MostProductiveHour != -1 {
					t.Errorf("Expected no productive day or hour, got %q %d", w.MostProductiveDay, w.MostProductiveHour)
				}
			},
		},
		{
			name: "sums only the current week",
			sessions: []models.StudySession{
				session("2024-11-30", 9, 100, true), // previous Saturday
				session("2024-12-01", 9, 20, true),
				session("2024-12-03", 21, 50, true),
				session("2024-12-03", 9, 10, false),
			},
			today: "2024-12-04",
			validate: func(t *testing.T, w WeeklySummary) {
				if w.TotalTime != 80 {
					t.Errorf("Expected 80 minutes, got %d", w.TotalTime)
				}
				if w.TasksCompleted != 2 || w.SessionsCount != 3 {
					t.Errorf("Expected 2 tasks over 3 sessions, got %d over %d", w.TasksCompleted, w.SessionsCount)
				}
				if w.DailyAverage != 11 {
					t.Errorf("Expected daily average 11, got %d", w.DailyAverage)
				}
				if w.MostProductiveDay != "Tuesday" {
					t.Errorf("Expected Tuesday, got %s", w.MostProductiveDay)
				}
				if w.MostProductiveHour != 21 {
					t.Errorf("Expected hour 21, got %d", w.MostProductiveHour)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := models.NewAnalyticsData()
			for _, s := range tt.sessions {
				data = AddSession(data, s, tt.today)
			}
			tt.validate(t, WeeklyStats(data, tt.today))
		})
	}
}

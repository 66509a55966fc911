package planner

import (
	"time"

	"github.com/benvon/study-advent/internal/analytics"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/prediction"
)

// Forecast bundles the completion prediction with the efficiency grade.
type Forecast struct {
	Prediction prediction.Prediction `json:"prediction"`
	Efficiency prediction.Efficiency `json:"efficiency"`
}

// Forecast projects completion of the current calendar as of now.
func (p *Planner) Forecast() Forecast {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	completed := p.snapshot.CompletedCount
	total := len(p.snapshot.Tasks)

	start := now
	if p.snapshot.StartDate != nil {
		start = p.snapshot.StartDate.In(p.clock.Location())
	}
	target := start.Add(time.Duration(p.targetDays) * 24 * time.Hour)

	pred := prediction.CalculateProgressPrediction(completed, total, start, target, now)
	return Forecast{
		Prediction: pred,
		Efficiency: prediction.CalculateEfficiencyScore(completed, total, pred.DaysElapsed, p.targetDays),
	}
}

// Analytics returns the aggregate with streaks evaluated for today.
func (p *Planner) Analytics() models.AnalyticsData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return analytics.Refresh(p.snapshot.Analytics, p.Today())
}

// Last7Days returns daily stats for the week ending today.
func (p *Planner) Last7Days() []models.DailyStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return analytics.Last7DaysStats(p.snapshot.Analytics, p.Today())
}

// Weekly summarizes the current Sunday-start week.
func (p *Planner) Weekly() analytics.WeeklySummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return analytics.WeeklyStats(p.snapshot.Analytics, p.Today())
}

// Gamification returns a copy of the learner's points, streak and achievements.
func (p *Planner) Gamification() models.GamificationStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.Gamification.Clone()
}

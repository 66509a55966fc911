package gamification

import (
	"time"

	"github.com/benvon/study-advent/internal/models"
)

type achievementInput struct {
	stats          models.GamificationStats
	completedCount int
	completionTime *time.Time
}

type predicate func(achievementInput) bool

var predicates = map[string]predicate{
	"first_task": func(in achievementInput) bool { return in.completedCount >= 1 },
	"early_bird": func(in achievementInput) bool {
		return in.completionTime != nil && in.completionTime.Hour() < 12 && in.stats.EarlyCompletions >= 3
	},
	"night_owl": func(in achievementInput) bool {
		return in.completionTime != nil && in.completionTime.Hour() >= 20 && in.stats.LateCompletions >= 3
	},
	"streak_3":          func(in achievementInput) bool { return in.stats.Streak >= 3 },
	"streak_7":          func(in achievementInput) bool { return in.stats.Streak >= 7 },
	"halfway":           func(in achievementInput) bool { return in.completedCount >= 12 },
	"calendar_complete": func(in achievementInput) bool { return in.completedCount >= models.CalendarDays },
	// "5 in one day" is approximated by the total count.
	"speed_demon": func(in achievementInput) bool { return in.completedCount >= 5 },
}

// CheckAchievements returns the catalog achievements that qualify now and are still locked in stats.
// Returned entries are marked unlocked at completionTime. Achievements without a
// known predicate never qualify.
func (c Catalog) CheckAchievements(stats models.GamificationStats, completedCount int, completionTime *time.Time) []models.Achievement {
	in := achievementInput{stats: stats, completedCount: completedCount, completionTime: completionTime}

	var out []models.Achievement
	for _, a := range c.Achievements {
		if stats.IsUnlocked(a.ID) {
			continue
		}
		pred, ok := predicates[a.ID]
		if !ok || !pred(in) {
			continue
		}
		a.Unlocked = true
		if completionTime != nil {
			at := *completionTime
			a.UnlockedAt = &at
		}
		out = append(out, a)
	}
	return out
}

// UnlockAchievements merges newly unlocked achievements into stats. Already unlocked ones are left alone.
func UnlockAchievements(stats models.GamificationStats, unlocked []models.Achievement) models.GamificationStats {
	if len(unlocked) == 0 {
		return stats
	}
	next := stats.Clone()
	for _, u := range unlocked {
		found := false
		for i := range next.Achievements {
			if next.Achievements[i].ID != u.ID {
				continue
			}
			found = true
			if !next.Achievements[i].Unlocked {
				next.Achievements[i].Unlocked = true
				next.Achievements[i].UnlockedAt = u.UnlockedAt
			}
			break
		}
		if !found {
			next.Achievements = append(next.Achievements, u)
		}
	}
	return next
}

package models

import "time"

// Achievement is a catalog entry plus its unlock state.
type Achievement struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Unlocked    bool       `json:"unlocked" yaml:"-"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty" yaml:"-"`
}

// GamificationStats holds points, streak and unlock state.
// Points only go down on a full reset; achievements never re-lock.
type GamificationStats struct {
	Points            int           `json:"points"`
	Streak            int           `json:"streak"`
	LastCompletedDate *string       `json:"last_completed_date"`
	TotalCompleted    int           `json:"total_completed"`
	EarlyCompletions  int           `json:"early_completions"`
	LateCompletions   int           `json:"late_completions"`
	Achievements      []Achievement `json:"achievements"`
	UnlockedRewards   []string      `json:"unlocked_rewards"`
}

// Clone returns a deep copy of s.
func (s GamificationStats) Clone() GamificationStats {
	out := s
	if s.LastCompletedDate != nil {
		d := *s.LastCompletedDate
		out.LastCompletedDate = &d
	}
	out.Achievements = make([]Achievement, len(s.Achievements))
	for i, a := range s.Achievements {
		out.Achievements[i] = a
		if a.UnlockedAt != nil {
			at := *a.UnlockedAt
			out.Achievements[i].UnlockedAt = &at
		}
	}
	out.UnlockedRewards = append([]string{}, s.UnlockedRewards...)
	return out
}

// IsUnlocked reports whether the achievement with id is unlocked.
func (s GamificationStats) IsUnlocked(id string) bool {
	for _, a := range s.Achievements {
		if a.ID == id {
			return a.Unlocked
		}
	}
	return false
}

// HasReward reports whether the reward with id has been purchased.
func (s GamificationStats) HasReward(id string) bool {
	for _, r := range s.UnlockedRewards {
		if r == id {
			return true
		}
	}
	return false
}

// RewardType groups rewards that can be equipped one at a time.
type RewardType string

const (
	RewardTypeTheme RewardType = "theme"
	RewardTypeBadge RewardType = "badge"
	RewardTypeSound RewardType = "sound"
)

// Reward is an item in the reward shop.
type Reward struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Cost        int        `json:"cost" yaml:"cost"`
	Type        RewardType `json:"type" yaml:"type"`
}

// RewardState records which purchased reward is equipped for each type.
type RewardState struct {
	Equipped map[RewardType]string `json:"equipped"`
}

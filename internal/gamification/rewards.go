package gamification

import (
	"errors"

	"github.com/benvon/study-advent/internal/models"
)

var (
	ErrRewardNotFound     = errors.New("reward not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardLocked       = errors.New("reward not unlocked")
)

// CanAffordReward reports whether points cover the reward's cost.
func CanAffordReward(points int, reward models.Reward) bool {
	return points >= reward.Cost
}

// UnlockReward adds reward id to the unlocked list. It reports false when the reward was already unlocked.
func UnlockReward(stats models.GamificationStats, id string) (models.GamificationStats, bool) {
	if stats.HasReward(id) {
		return stats, false
	}
	next := stats.Clone()
	next.UnlockedRewards = append(next.UnlockedRewards, id)
	return next, true
}

// PurchaseReward unlocks a catalog reward if the learner has enough points.
// Points are a threshold, not a currency, so nothing is deducted. Buying an
// owned reward again is a no-op and reports false.
func (c Catalog) PurchaseReward(stats models.GamificationStats, id string) (models.GamificationStats, bool, error) {
	reward, ok := c.Reward(id)
	if !ok {
		return stats, false, ErrRewardNotFound
	}
	if stats.HasReward(id) {
		return stats, false, nil
	}
	if !CanAffordReward(stats.Points, reward) {
		return stats, false, ErrInsufficientPoints
	}
	next, changed := UnlockReward(stats, id)
	return next, changed, nil
}

// EquipReward makes an unlocked reward the active one for its type.
func (c Catalog) EquipReward(state models.RewardState, stats models.GamificationStats, id string) (models.RewardState, error) {
	reward, ok := c.Reward(id)
	if !ok {
		return state, ErrRewardNotFound
	}
	if !stats.HasReward(id) {
		return state, ErrRewardLocked
	}
	equipped := make(map[models.RewardType]string, len(state.Equipped)+1)
	for k, v := range state.Equipped {
		equipped[k] = v
	}
	equipped[reward.Type] = reward.ID
	return models.RewardState{Equipped: equipped}, nil
}

package planner

import (
	"context"
	"fmt"

	"github.com/benvon/study-advent/internal/gamification"
	"github.com/benvon/study-advent/internal/models"
	"github.com/benvon/study-advent/internal/storage"
	"go.uber.org/zap"
)

// RewardView is a shop entry annotated for the learner.
type RewardView struct {
	models.Reward
	Owned      bool `json:"owned"`
	Equipped   bool `json:"equipped"`
	Affordable bool `json:"affordable"`
}

// Shop is the reward catalog as the learner sees it.
type Shop struct {
	Points   int                          `json:"points"`
	Rewards  []RewardView                 `json:"rewards"`
	Equipped map[models.RewardType]string `json:"equipped"`
}

func (p *Planner) rewardState() models.RewardState {
	state, err := storage.ReadJSON(p.store, storage.KeyRewards, models.RewardState{})
	if err != nil {
		p.logger.Error("reward_state_load_failed", zap.Error(err))
	}
	if state.Equipped == nil {
		state.Equipped = map[models.RewardType]string{}
	}
	return state
}

// Rewards lists the shop.
func (p *Planner) Rewards() Shop {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.snapshot.Gamification
	state := p.rewardState()

	views := make([]RewardView, 0, len(p.catalog.Rewards))
	for _, r := range p.catalog.Rewards {
		views = append(views, RewardView{
			Reward:     r,
			Owned:      stats.HasReward(r.ID),
			Equipped:   state.Equipped[r.Type] == r.ID,
			Affordable: gamification.CanAffordReward(stats.Points, r),
		})
	}
	return Shop{Points: stats.Points, Rewards: views, Equipped: state.Equipped}
}

// PurchaseReward unlocks a reward. It reports false when the reward was already owned.
func (p *Planner) PurchaseReward(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, changed, err := p.catalog.PurchaseReward(p.snapshot.Gamification, id)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	p.snapshot.Gamification = next
	p.touch(ctx, p.clock.Now())
	p.logger.Info("reward_purchased", zap.String("reward_id", id))
	return true, nil
}

// EquipReward activates an owned reward for its type.
func (p *Planner) EquipReward(id string) (models.RewardState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := p.catalog.EquipReward(p.rewardState(), p.snapshot.Gamification, id)
	if err != nil {
		return models.RewardState{}, err
	}
	if err := storage.WriteJSON(p.store, storage.KeyRewards, next); err != nil {
		return models.RewardState{}, fmt.Errorf("failed to save reward state: %w", err)
	}
	p.logger.Info("reward_equipped", zap.String("reward_id", id))
	return next, nil
}

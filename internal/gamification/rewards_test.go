package gamification

import (
	"errors"
	"testing"

	"github.com/benvon/study-advent/internal/models"
)

func TestPurchaseReward(t *testing.T) {
	t.Parallel()

	c := Catalog{Rewards: []models.Reward{{ID: "theme_gold", Cost: 100, Type: models.RewardTypeTheme}}}
	reward, _ := c.Reward("theme_gold")

	stats := models.GamificationStats{Points: 100, UnlockedRewards: []string{}}
	if !CanAffordReward(stats.Points, reward) {
		t.Fatal("Expected 100 points to afford a 100 point reward")
	}

	stats, changed, err := c.PurchaseReward(stats, "theme_gold")
	if err != nil || !changed {
		t.Fatalf("Expected purchase to succeed, got changed=%v err=%v", changed, err)
	}
	if !stats.HasReward("theme_gold") {
		t.Error("Expected theme_gold in unlocked rewards")
	}
	if stats.Points != 100 {
		t.Errorf("Expected points to stay 100, got %d", stats.Points)
	}

	again, changed, err := c.PurchaseReward(stats, "theme_gold")
	if err != nil || changed {
		t.Errorf("Expected second purchase to be a no-op, got changed=%v err=%v", changed, err)
	}
	if len(again.UnlockedRewards) != 1 {
		t.Errorf("Expected one unlocked reward, got %v", again.UnlockedRewards)
	}
}

func TestPurchaseReward_Errors(t *testing.T) {
	t.Parallel()

	c := Catalog{Rewards: []models.Reward{{ID: "badge", Cost: 50, Type: models.RewardTypeBadge}}}

	if _, _, err := c.PurchaseReward(models.GamificationStats{Points: 49}, "badge"); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("Expected ErrInsufficientPoints, got %v", err)
	}
	if _, _, err := c.PurchaseReward(models.GamificationStats{Points: 999}, "missing"); !errors.Is(err, ErrRewardNotFound) {
		t.Errorf("Expected ErrRewardNotFound, got %v", err)
	}
}

func TestEquipReward(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	stats := models.GamificationStats{UnlockedRewards: []string{"theme_winter", "theme_midnight"}}

	if _, err := c.EquipReward(models.RewardState{}, stats, "badge_scholar"); !errors.Is(err, ErrRewardLocked) {
		t.Errorf("Expected ErrRewardLocked, got %v", err)
	}

	state, err := c.EquipReward(models.RewardState{}, stats, "theme_winter")
	if err != nil {
		t.Fatalf("EquipReward: %v", err)
	}
	next, err := c.EquipReward(state, stats, "theme_midnight")
	if err != nil {
		t.Fatalf("EquipReward: %v", err)
	}
	if next.Equipped[models.RewardTypeTheme] != "theme_midnight" {
		t.Errorf("Expected theme_midnight equipped, got %v", next.Equipped)
	}
	if state.Equipped[models.RewardTypeTheme] != "theme_winter" {
		t.Errorf("Expected previous state untouched, got %v", state.Equipped)
	}
}

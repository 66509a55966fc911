package gamification

import (
	_ "embed"
	"fmt"

	"github.com/benvon/study-advent/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the static set of achievements and shop rewards.
type Catalog struct {
	Achievements []models.Achievement `yaml:"achievements"`
	Rewards      []models.Reward      `yaml:"rewards"`
}

var defaultCatalog = mustParseCatalog(catalogYAML)

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Achievements: append([]models.Achievement{}, defaultCatalog.Achievements...),
		Rewards:      append([]models.Reward{}, defaultCatalog.Rewards...),
	}
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return c, nil
}

func mustParseCatalog(data []byte) Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Reward looks up a shop reward by id.
func (c Catalog) Reward(id string) (models.Reward, bool) {
	for _, r := range c.Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return models.Reward{}, false
}

// NewStats returns zeroed stats with every catalog achievement locked.
func (c Catalog) NewStats() models.GamificationStats {
	achievements := make([]models.Achievement, len(c.Achievements))
	copy(achievements, c.Achievements)
	for i := range achievements {
		achievements[i].Unlocked = false
		achievements[i].UnlockedAt = nil
	}
	return models.GamificationStats{
		Achievements:    achievements,
		UnlockedRewards: []string{},
	}
}

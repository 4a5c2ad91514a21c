package catalog

import "github.com/tatianab/stemverse/internal/models"

// RequirementKind names the player fact a requirement reads.
type RequirementKind string

const (
	ReqTokensEarned    RequirementKind = "tokens_earned"
	ReqQuestsCompleted RequirementKind = "quests_completed"
	ReqPlanetsUnlocked RequirementKind = "planets_unlocked"
	ReqTimeSpent       RequirementKind = "time_spent"
	ReqStreakDays      RequirementKind = "streak_days"
	ReqPerfectScores   RequirementKind = "perfect_scores"
)

var requirementKinds = []RequirementKind{
	ReqTokensEarned, ReqQuestsCompleted, ReqPlanetsUnlocked,
	ReqTimeSpent, ReqStreakDays, ReqPerfectScores,
}

type Requirement struct {
	Kind        RequirementKind `yaml:"kind"`
	Planet      models.PlanetID `yaml:"planet,omitempty"`
	Count       int             `yaml:"count"`
	Description string          `yaml:"description"`
}

type Rewards struct {
	Tokens   int    `yaml:"tokens"`
	Title    string `yaml:"title,omitempty"`
	Cosmetic string `yaml:"cosmetic,omitempty"`
}

type Achievement struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Icon         string        `yaml:"icon"`
	Rarity       string        `yaml:"rarity"`
	Category     string        `yaml:"category"`
	Hidden       bool          `yaml:"hidden"`
	Requirements []Requirement `yaml:"requirements"`
	Rewards      Rewards       `yaml:"rewards"`
}

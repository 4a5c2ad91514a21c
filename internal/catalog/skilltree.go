package catalog

import "fmt"

// TreeID is a planet id or "global".
type TreeID string

const GlobalTree TreeID = "global"

type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// SkillNode is a node of a skill tree. Unlocked and Level are the static
// starting values; player purchases live in the game state.
type SkillNode struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Icon          string   `yaml:"icon"`
	Prerequisites []string `yaml:"prerequisites"`
	Cost          int      `yaml:"cost"`
	Benefits      []string `yaml:"benefits"`
	Unlocked      bool     `yaml:"unlocked"`
	Level         int      `yaml:"level"`
	MaxLevel      int      `yaml:"max_level"`
	Position      Position `yaml:"position"`
	Connections   []string `yaml:"connections"`
}

type SkillTree struct {
	ID          TreeID      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Skills      []SkillNode `yaml:"skills"`
}

// Skill returns the node with the given id.
func (t *SkillTree) Skill(id string) (SkillNode, bool) {
	for _, s := range t.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return SkillNode{}, false
}

func (t *SkillTree) validate() error {
	ids := make(map[string]bool, len(t.Skills))
	for _, s := range t.Skills {
		if ids[s.ID] {
			return fmt.Errorf("skill tree %q: duplicate skill %q", t.ID, s.ID)
		}
		ids[s.ID] = true
		if s.MaxLevel <= 0 {
			return fmt.Errorf("skill tree %q: skill %q: max level must be positive", t.ID, s.ID)
		}
	}
	for _, s := range t.Skills {
		for _, p := range s.Prerequisites {
			if !ids[p] {
				return fmt.Errorf("skill tree %q: skill %q: unknown prerequisite %q", t.ID, s.ID, p)
			}
		}
	}
	return nil
}

// Package catalog holds the static game content: planets, quests, math
// adventures, themes, token rules, achievements and skill trees.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/tatianab/stemverse/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownPlanet      = errors.New("catalog: unknown planet")
	ErrUnknownRequirement = errors.New("catalog: unknown requirement kind")
)

// QuestKind selects the quest flow and the outcome type it produces.
type QuestKind string

const (
	QuestGeneric        QuestKind = "generic"
	QuestEcoDesign      QuestKind = "eco_design"
	QuestCodeSubmission QuestKind = "code_submission"
)

type Quest struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Kind        QuestKind `yaml:"kind"`
}

type Planet struct {
	ID               models.PlanetID `yaml:"id"`
	Name             string          `yaml:"name"`
	NPC              string          `yaml:"npc"`
	Description      string          `yaml:"description"`
	Order            int             `yaml:"order"`
	CompletionTarget int             `yaml:"completion_target"`
	Quests           []Quest         `yaml:"quests"`
}

// Quest returns the quest with the given id.
func (p Planet) Quest(id string) (Quest, bool) {
	for _, q := range p.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}

type Adventure struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	ThemePrompt     string `yaml:"theme_prompt"`
	EstimatedStages int    `yaml:"estimated_stages"`
}

// ThemeInfo carries the palette for a cosmetic theme.
type ThemeInfo struct {
	ID        models.Theme `yaml:"id"`
	Name      string       `yaml:"name"`
	Accent    string       `yaml:"accent"`
	Secondary string       `yaml:"secondary"`
	Text      string       `yaml:"text"`
}

// TokenRules are the fixed token amounts used across the game.
type TokenRules struct {
	HintCost            int `yaml:"hint_cost"`
	QuestStage          int `yaml:"quest_stage"`
	EcoQuestCompletion  int `yaml:"eco_quest_completion"`
	CodeQuestCompletion int `yaml:"code_quest_completion"`
	AdventureCompletion int `yaml:"adventure_completion"`
}

type defaultsConfig struct {
	UnlockedPlanets []models.PlanetID `yaml:"unlocked_planets"`
	Theme           models.Theme      `yaml:"theme"`
	UserName        string            `yaml:"user_name"`
}

// Catalog is immutable after Load.
type Catalog struct {
	Tokens       TokenRules     `yaml:"tokens"`
	DefaultState defaultsConfig `yaml:"defaults"`
	Planets      []Planet       `yaml:"planets"`
	Adventures   []Adventure    `yaml:"adventures"`
	Themes       []ThemeInfo    `yaml:"themes"`
	Achievements []Achievement  `yaml:"achievements"`
	SkillTrees   []SkillTree    `yaml:"skill_trees"`

	planets      map[models.PlanetID]int
	adventures   map[string]int
	achievements map[string]int
	trees        map[TreeID]int
	themes       map[models.Theme]int
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from path; an empty path yields the embedded one.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	sort.SliceStable(c.Planets, func(i, j int) bool { return c.Planets[i].Order < c.Planets[j].Order })
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.planets = make(map[models.PlanetID]int, len(c.Planets))
	for i, p := range c.Planets {
		if p.ID == "" {
			return fmt.Errorf("planet %d has no id", i)
		}
		if _, dup := c.planets[p.ID]; dup {
			return fmt.Errorf("duplicate planet %q", p.ID)
		}
		if p.CompletionTarget <= 0 {
			return fmt.Errorf("planet %q: completion target must be positive", p.ID)
		}
		seen := make(map[string]bool, len(p.Quests))
		for _, q := range p.Quests {
			if seen[q.ID] {
				return fmt.Errorf("planet %q: duplicate quest %q", p.ID, q.ID)
			}
			seen[q.ID] = true
		}
		c.planets[p.ID] = i
	}
	for _, id := range c.DefaultState.UnlockedPlanets {
		if _, ok := c.planets[id]; !ok {
			return fmt.Errorf("default unlocked planet %q: %w", id, ErrUnknownPlanet)
		}
	}

	c.adventures = make(map[string]int, len(c.Adventures))
	for i, a := range c.Adventures {
		if _, dup := c.adventures[a.ID]; dup {
			return fmt.Errorf("duplicate adventure %q", a.ID)
		}
		c.adventures[a.ID] = i
	}

	c.themes = make(map[models.Theme]int, len(c.Themes))
	for i, t := range c.Themes {
		c.themes[t.ID] = i
	}
	if _, ok := c.themes[c.DefaultState.Theme]; !ok {
		return fmt.Errorf("default theme %q is not defined", c.DefaultState.Theme)
	}

	c.achievements = make(map[string]int, len(c.Achievements))
	for i, a := range c.Achievements {
		if _, dup := c.achievements[a.ID]; dup {
			return fmt.Errorf("duplicate achievement %q", a.ID)
		}
		if len(a.Requirements) == 0 {
			return fmt.Errorf("achievement %q has no requirements", a.ID)
		}
		for _, r := range a.Requirements {
			if !slices.Contains(requirementKinds, r.Kind) {
				return fmt.Errorf("achievement %q: %q: %w", a.ID, r.Kind, ErrUnknownRequirement)
			}
			if r.Planet != "" {
				if _, ok := c.planets[r.Planet]; !ok {
					return fmt.Errorf("achievement %q: planet %q: %w", a.ID, r.Planet, ErrUnknownPlanet)
				}
			}
		}
		c.achievements[a.ID] = i
	}

	c.trees = make(map[TreeID]int, len(c.SkillTrees))
	for i := range c.SkillTrees {
		t := &c.SkillTrees[i]
		if _, dup := c.trees[t.ID]; dup {
			return fmt.Errorf("duplicate skill tree %q", t.ID)
		}
		if err := t.validate(); err != nil {
			return err
		}
		c.trees[t.ID] = i
	}
	return nil
}

// Planet returns the configured planet.
func (c *Catalog) Planet(id models.PlanetID) (Planet, bool) {
	i, ok := c.planets[id]
	if !ok {
		return Planet{}, false
	}
	return c.Planets[i], true
}

// PlanetIDs lists planets in unlock order.
func (c *Catalog) PlanetIDs() []models.PlanetID {
	ids := make([]models.PlanetID, len(c.Planets))
	for i, p := range c.Planets {
		ids[i] = p.ID
	}
	return ids
}

// Next returns the planet unlocked after id, if any.
func (c *Catalog) Next(id models.PlanetID) (models.PlanetID, bool) {
	i, ok := c.planets[id]
	if !ok || i+1 >= len(c.Planets) {
		return "", false
	}
	return c.Planets[i+1].ID, true
}

// CompletionTarget returns 0 for unconfigured planets.
func (c *Catalog) CompletionTarget(id models.PlanetID) int {
	p, ok := c.Planet(id)
	if !ok {
		return 0
	}
	return p.CompletionTarget
}

func (c *Catalog) Adventure(id string) (Adventure, bool) {
	i, ok := c.adventures[id]
	if !ok {
		return Adventure{}, false
	}
	return c.Adventures[i], true
}

func (c *Catalog) Achievement(id string) (Achievement, bool) {
	i, ok := c.achievements[id]
	if !ok {
		return Achievement{}, false
	}
	return c.Achievements[i], true
}

func (c *Catalog) Tree(id TreeID) (*SkillTree, bool) {
	i, ok := c.trees[id]
	if !ok {
		return nil, false
	}
	return &c.SkillTrees[i], true
}

func (c *Catalog) Theme(id models.Theme) (ThemeInfo, bool) {
	i, ok := c.themes[id]
	if !ok {
		return ThemeInfo{}, false
	}
	return c.Themes[i], true
}

// Defaults describes the state of a new player.
func (c *Catalog) Defaults() models.Defaults {
	return models.Defaults{
		Planets:         c.PlanetIDs(),
		UnlockedPlanets: slices.Clone(c.DefaultState.UnlockedPlanets),
		Theme:           c.DefaultState.Theme,
		UserName:        c.DefaultState.UserName,
	}
}

// QuestReward is the token award for finishing a quest on a planet when the
// outcome does not carry its own amount.
func (c *Catalog) QuestReward(id models.PlanetID) int {
	switch id {
	case models.PlanetEco:
		return c.Tokens.EcoQuestCompletion
	case models.PlanetCode:
		return c.Tokens.CodeQuestCompletion
	default:
		return c.Tokens.QuestStage
	}
}

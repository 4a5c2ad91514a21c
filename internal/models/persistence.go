package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tatianab/stemverse/internal/storage"
)

// Storage keys. They match the keys older saves were written under.
const (
	GameStateKey          = "stemverseGameState"
	EarnedAchievementsKey = "stemverse_earned_achievements"
)

// CurrentVersion is stamped on every saved state.
const CurrentVersion = 2

// Repository serializes progression data into a storage backend.
type Repository struct {
	kv       storage.Storage
	defaults Defaults
	logger   *slog.Logger
}

// NewRepository returns a Repository. A nil logger uses slog.Default.
func NewRepository(kv storage.Storage, d Defaults, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{kv: kv, defaults: d, logger: logger}
}

// Defaults returns the initial-state description the repository repairs with.
func (r *Repository) Defaults() Defaults { return r.defaults }

// Load returns the stored state, repaired against the defaults. A missing
// or unparseable blob yields a fresh state; only backend failures are errors.
func (r *Repository) Load() (*GameState, error) {
	data, err := r.kv.Get(GameStateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return NewGameState(r.defaults), nil
	}
	if err != nil {
		return NewGameState(r.defaults), fmt.Errorf("loading game state: %w", err)
	}

	var s GameState
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Warn("discarding unreadable game state", "error", err)
		return NewGameState(r.defaults), nil
	}
	if s.Repair(r.defaults) {
		r.logger.Info("repaired stored game state", "version", s.Version)
	}
	return &s, nil
}

// Save writes the full state.
func (r *Repository) Save(s *GameState) error {
	v := *s
	v.Version = CurrentVersion
	data, err := json.Marshal(&v)
	if err != nil {
		return fmt.Errorf("marshaling game state: %w", err)
	}
	if err := r.kv.Put(GameStateKey, data); err != nil {
		return fmt.Errorf("saving game state: %w", err)
	}
	return nil
}

// LoadEarned returns the earned achievement ids in award order.
func (r *Repository) LoadEarned() ([]string, error) {
	data, err := r.kv.Get(EarnedAchievementsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return []string{}, fmt.Errorf("loading earned achievements: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		r.logger.Warn("discarding unreadable earned achievements", "error", err)
		return []string{}, nil
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// SaveEarned writes the earned achievement ids.
func (r *Repository) SaveEarned(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling earned achievements: %w", err)
	}
	if err := r.kv.Put(EarnedAchievementsKey, data); err != nil {
		return fmt.Errorf("saving earned achievements: %w", err)
	}
	return nil
}

// Repair fills fields that older or partial saves may lack. It reports
// whether anything had to be changed.
func (s *GameState) Repair(d Defaults) bool {
	changed := false
	if s.Version != CurrentVersion {
		s.Version = CurrentVersion
		changed = true
	}
	if s.Progress == nil {
		s.Progress = make(map[PlanetID]*PlanetProgress)
		changed = true
	}
	for _, p := range d.Planets {
		if s.Progress[p] == nil {
			s.Progress[p] = NewPlanetProgress(p)
			changed = true
		}
	}
	for id, pp := range s.Progress {
		if pp == nil {
			s.Progress[id] = NewPlanetProgress(id)
			changed = true
			continue
		}
		if pp.CompletedQuestIDs == nil {
			pp.CompletedQuestIDs = []string{}
			changed = true
		}
		if pp.Badges == nil {
			pp.Badges = []string{}
			changed = true
		}
		if id == PlanetMath {
			if pp.MathAdventure == nil {
				pp.MathAdventure = NewMathAdventure()
				changed = true
			} else if pp.MathAdventure.repair() {
				changed = true
			}
		}
	}
	if s.UnlockedPlanetIDs == nil {
		s.UnlockedPlanetIDs = slices.Clone(d.UnlockedPlanets)
		if s.UnlockedPlanetIDs == nil {
			s.UnlockedPlanetIDs = []PlanetID{}
		}
		changed = true
	}
	if s.CurrentTheme == "" {
		s.CurrentTheme = d.Theme
		changed = true
	}
	if s.UserName == "" {
		s.UserName = d.UserName
		changed = true
	}
	if s.TotalTokens < 0 {
		s.TotalTokens = 0
		changed = true
	}
	if s.SkillLevels == nil {
		s.SkillLevels = make(map[string]int)
		changed = true
	}
	if s.Journey == nil {
		s.Journey = []Milestone{}
		changed = true
	}
	return changed
}

func (m *MathAdventureProgress) repair() bool {
	changed := false
	if m.StoryLog == nil {
		m.StoryLog = []AdventureLogEntry{}
		changed = true
	}
	if m.CompletedStages == nil {
		m.CompletedStages = []string{}
		changed = true
	}
	if m.CompletedAdventures == nil {
		m.CompletedAdventures = []string{}
		changed = true
	}
	return changed
}

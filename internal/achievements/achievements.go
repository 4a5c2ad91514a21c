// Package achievements evaluates achievement requirements against the game
// state and keeps the append-only record of what has been earned.
package achievements

import (
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

// Progress counts satisfied requirements out of the total.
type Progress struct {
	Completed bool
	Progress  int
	Total     int
}

// Value returns the player's current value for a requirement.
func Value(r catalog.Requirement, s *models.GameState) int {
	switch r.Kind {
	case catalog.ReqTokensEarned:
		return s.TotalTokens
	case catalog.ReqQuestsCompleted:
		if r.Planet != "" {
			return s.CompletionCount(r.Planet)
		}
		total := 0
		for id := range s.Progress {
			total += s.CompletionCount(id)
		}
		return total
	case catalog.ReqPlanetsUnlocked:
		return len(s.UnlockedPlanetIDs)
	case catalog.ReqTimeSpent:
		return s.Stats.TimeSpentMinutes
	case catalog.ReqStreakDays:
		return s.Stats.StreakDays
	case catalog.ReqPerfectScores:
		return s.Stats.PerfectScores
	}
	return 0
}

// Check evaluates every requirement of a.
func Check(a catalog.Achievement, s *models.GameState) Progress {
	p := Progress{Total: len(a.Requirements)}
	for _, r := range a.Requirements {
		if Value(r, s) >= r.Count {
			p.Progress++
		}
	}
	p.Completed = p.Progress == p.Total
	return p
}

// Evaluator scans the achievement catalog.
type Evaluator struct {
	cat *catalog.Catalog
}

func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{cat: cat}
}

// Earnable returns completed achievements not yet earned, in catalog order.
func (e *Evaluator) Earnable(s *models.GameState, earned func(string) bool) []catalog.Achievement {
	var out []catalog.Achievement
	for _, a := range e.cat.Achievements {
		if earned(a.ID) {
			continue
		}
		if Check(a, s).Completed {
			out = append(out, a)
		}
	}
	return out
}

// Next returns the first earnable achievement.
func (e *Evaluator) Next(s *models.GameState, earned func(string) bool) (catalog.Achievement, bool) {
	for _, a := range e.cat.Achievements {
		if !earned(a.ID) && Check(a, s).Completed {
			return a, true
		}
	}
	return catalog.Achievement{}, false
}

// All returns the progress of every achievement keyed by id.
func (e *Evaluator) All(s *models.GameState) map[string]Progress {
	out := make(map[string]Progress, len(e.cat.Achievements))
	for _, a := range e.cat.Achievements {
		out[a.ID] = Check(a, s)
	}
	return out
}

const (
	defaultTitle  = "Star Explorer"
	untitledTitle = "Cosmic Adventurer"
)

// PlayerTitle is the title of the most recently earned achievement that
// carries one.
func (e *Evaluator) PlayerTitle(earned []string) string {
	if len(earned) == 0 {
		return defaultTitle
	}
	for i := len(earned) - 1; i >= 0; i-- {
		if a, ok := e.cat.Achievement(earned[i]); ok && a.Rewards.Title != "" {
			return a.Rewards.Title
		}
	}
	return untitledTitle
}

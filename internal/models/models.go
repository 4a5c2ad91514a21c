package models

import (
	"maps"
	"slices"
	"time"
)

// PlanetID identifies a learning world. The empty value means "at the hub".
type PlanetID string

const (
	PlanetMath PlanetID = "math"
	PlanetEco  PlanetID = "eco"
	PlanetCode PlanetID = "code"
)

// Theme is a cosmetic preference. The set of valid themes comes from the catalog.
type Theme string

// AdventureMode controls how a math adventure is rendered.
type AdventureMode string

const (
	ModeTextOnly     AdventureMode = "text_only"
	ModeTextAndImage AdventureMode = "text_and_image"
)

// LogEntryType tags an entry in the adventure story log.
type LogEntryType string

const (
	LogNarration      LogEntryType = "narration"
	LogProblem        LogEntryType = "problem"
	LogUserAnswer     LogEntryType = "user_answer"
	LogFeedback       LogEntryType = "feedback"
	LogHint           LogEntryType = "hint"
	LogImage          LogEntryType = "image"
	LogSystemMessage  LogEntryType = "system_message"
	LogAdventureStart LogEntryType = "adventure_start"
	LogAdventureEnd   LogEntryType = "adventure_end"
)

// AdventureLogEntry is a single line of the adventure transcript.
type AdventureLogEntry struct {
	Type      LogEntryType `json:"type"`
	Content   string       `json:"content"`
	Timestamp int64        `json:"timestamp"` // unix millis
	IsCorrect *bool        `json:"isCorrect,omitempty"`
}

// MathAdventureProgress tracks the in-flight and finished math adventures.
// Empty strings stand for "no run".
type MathAdventureProgress struct {
	CurrentStageID              string              `json:"currentStageId"`
	StoryLog                    []AdventureLogEntry `json:"storyLog"`
	CompletedStages             []string            `json:"completedStages"`
	SelectedAdventureID         string              `json:"selectedAdventureId"`
	CurrentAdventureMode        AdventureMode       `json:"currentAdventureMode"`
	CurrentAdventureTotalStages int                 `json:"currentAdventureTotalStages"`
	CompletedAdventures         []string            `json:"completedAdventures"`
}

// Active reports whether an adventure run is in progress.
func (m *MathAdventureProgress) Active() bool {
	return m != nil && m.SelectedAdventureID != ""
}

// PlanetProgress is the per-planet slice of the game state.
type PlanetProgress struct {
	CompletedQuestIDs []string               `json:"completedQuestIds"`
	Tokens            int                    `json:"tokens"`
	Badges            []string               `json:"badges"`
	MathAdventure     *MathAdventureProgress `json:"mathAdventure,omitempty"`
}

// PlayerStats holds activity counters used by achievements.
type PlayerStats struct {
	TimeSpentMinutes int    `json:"timeSpentMinutes"`
	StreakDays       int    `json:"streakDays"`
	LastActiveDate   string `json:"lastActiveDate"` // YYYY-MM-DD
	PerfectScores    int    `json:"perfectScores"`
}

// MilestoneType tags a journey entry.
type MilestoneType string

const (
	MilestonePlanetUnlocked     MilestoneType = "planet_unlocked"
	MilestoneQuestCompleted     MilestoneType = "quest_completed"
	MilestoneAdventureCompleted MilestoneType = "adventure_completed"
	MilestoneAchievementEarned  MilestoneType = "achievement_earned"
	MilestoneSkillUnlocked      MilestoneType = "skill_unlocked"
	MilestoneMasterBadge        MilestoneType = "master_badge"
)

// Milestone is one step on the player's journey timeline.
type Milestone struct {
	ID       string        `json:"id"`
	Type     MilestoneType `json:"type"`
	Title    string        `json:"title"`
	PlanetID PlanetID      `json:"planetId,omitempty"`
	RefID    string        `json:"refId,omitempty"`
	At       time.Time     `json:"at"`
}

// GameState is the persisted progression aggregate.
type GameState struct {
	Version           int                          `json:"version"`
	CurrentPlanetID   PlanetID                     `json:"currentPlanetId"`
	UnlockedPlanetIDs []PlanetID                   `json:"unlockedPlanetIds"`
	Progress          map[PlanetID]*PlanetProgress `json:"progress"`
	TotalTokens       int                          `json:"totalTokens"`
	UserName          string                       `json:"userName"`
	MasterBadgeEarned bool                         `json:"masterBadgeEarned"`
	FirstTimeUser     bool                         `json:"firstTimeUser"`
	CurrentTheme      Theme                        `json:"currentTheme"`
	Stats             PlayerStats                  `json:"stats"`
	SkillLevels       map[string]int               `json:"skillLevels"`
	Journey           []Milestone                  `json:"journey"`
}

// Defaults describes the initial state of a new player.
type Defaults struct {
	Planets         []PlanetID
	UnlockedPlanets []PlanetID
	Theme           Theme
	UserName        string
}

// NewGameState returns the initial state for a new player.
func NewGameState(d Defaults) *GameState {
	s := &GameState{
		Version:           CurrentVersion,
		UnlockedPlanetIDs: slices.Clone(d.UnlockedPlanets),
		Progress:          make(map[PlanetID]*PlanetProgress),
		UserName:          d.UserName,
		FirstTimeUser:     true,
		CurrentTheme:      d.Theme,
		SkillLevels:       make(map[string]int),
		Journey:           []Milestone{},
	}
	if s.UnlockedPlanetIDs == nil {
		s.UnlockedPlanetIDs = []PlanetID{}
	}
	for _, p := range d.Planets {
		s.Progress[p] = NewPlanetProgress(p)
	}
	return s
}

// NewPlanetProgress returns empty progress for a planet. MATH carries an
// adventure sub-record.
func NewPlanetProgress(p PlanetID) *PlanetProgress {
	pp := &PlanetProgress{
		CompletedQuestIDs: []string{},
		Badges:            []string{},
	}
	if p == PlanetMath {
		pp.MathAdventure = NewMathAdventure()
	}
	return pp
}

func NewMathAdventure() *MathAdventureProgress {
	return &MathAdventureProgress{
		StoryLog:            []AdventureLogEntry{},
		CompletedStages:     []string{},
		CompletedAdventures: []string{},
	}
}

// IsUnlocked reports whether the planet is in the unlocked set.
func (s *GameState) IsUnlocked(p PlanetID) bool {
	return slices.Contains(s.UnlockedPlanetIDs, p)
}

// CompletionCount is the number of completions credited to a planet toward
// its target. MATH counts finished adventures; other planets count quests.
func (s *GameState) CompletionCount(p PlanetID) int {
	pp := s.Progress[p]
	if pp == nil {
		return 0
	}
	if p == PlanetMath {
		if pp.MathAdventure == nil {
			return 0
		}
		return len(pp.MathAdventure.CompletedAdventures)
	}
	return len(pp.CompletedQuestIDs)
}

// UnlockedSkills returns the ids of skills bought at least once, sorted.
func (s *GameState) UnlockedSkills() []string {
	ids := make([]string, 0, len(s.SkillLevels))
	for id, lvl := range s.SkillLevels {
		if lvl > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.UnlockedPlanetIDs = slices.Clone(s.UnlockedPlanetIDs)
	c.SkillLevels = maps.Clone(s.SkillLevels)
	c.Journey = slices.Clone(s.Journey)
	if s.Progress != nil {
		c.Progress = make(map[PlanetID]*PlanetProgress, len(s.Progress))
		for id, pp := range s.Progress {
			c.Progress[id] = pp.Clone()
		}
	}
	return &c
}

func (p *PlanetProgress) Clone() *PlanetProgress {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedQuestIDs = slices.Clone(p.CompletedQuestIDs)
	c.Badges = slices.Clone(p.Badges)
	if p.MathAdventure != nil {
		m := *p.MathAdventure
		m.StoryLog = slices.Clone(p.MathAdventure.StoryLog)
		m.CompletedStages = slices.Clone(p.MathAdventure.CompletedStages)
		m.CompletedAdventures = slices.Clone(p.MathAdventure.CompletedAdventures)
		c.MathAdventure = &m
	}
	return &c
}

// QuestOutcome is the result of finishing a planet quest.
type QuestOutcome interface {
	isQuestOutcome()
}

// EcoDesignOutcome is returned by an evaluated eco design.
type EcoDesignOutcome struct {
	Score         int    `json:"score"`
	Feedback      string `json:"feedback"`
	TokensAwarded int    `json:"tokensAwarded"`
}

// CodeEvaluation is the verdict on a code submission.
type CodeEvaluation struct {
	Score    int    `json:"score"`
	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback"`
}

// CodeSubmissionOutcome is returned by an analyzed code submission.
type CodeSubmissionOutcome struct {
	Evaluation    CodeEvaluation `json:"evaluation"`
	TokensAwarded int            `json:"tokensAwarded"`
}

// GenericOutcome completes a quest with the planet's default reward.
type GenericOutcome struct{}

func (EcoDesignOutcome) isQuestOutcome()      {}
func (CodeSubmissionOutcome) isQuestOutcome() {}
func (GenericOutcome) isQuestOutcome()        {}

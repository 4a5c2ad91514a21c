package models

import (
	"slices"
	"testing"

	"github.com/tatianab/stemverse/internal/storage"
)

var testDefaults = Defaults{
	Planets:         []PlanetID{PlanetMath, PlanetEco, PlanetCode},
	UnlockedPlanets: []PlanetID{PlanetMath, PlanetEco, PlanetCode},
	Theme:           "dark",
	UserName:        "Star Explorer",
}

func TestNewGameState(t *testing.T) {
	s := NewGameState(testDefaults)
	if !s.FirstTimeUser {
		t.Error("expected a new player to be a first-time user")
	}
	if s.CurrentPlanetID != "" {
		t.Errorf("expected to start at the hub, got %q", s.CurrentPlanetID)
	}
	for _, p := range testDefaults.Planets {
		if s.Progress[p] == nil {
			t.Fatalf("missing progress for %s", p)
		}
	}
	if s.Progress[PlanetMath].MathAdventure == nil {
		t.Error("expected MATH progress to carry an adventure record")
	}
	if s.Progress[PlanetEco].MathAdventure != nil {
		t.Error("expected ECO progress to have no adventure record")
	}
}

func TestCompletionCount(t *testing.T) {
	s := NewGameState(testDefaults)
	m := s.Progress[PlanetMath]
	m.CompletedQuestIDs = []string{"adv1", "q1"}
	m.MathAdventure.CompletedAdventures = []string{"adv1", "adv2"}

	if got := s.CompletionCount(PlanetMath); got != 2 {
		t.Errorf("CompletionCount(math) = %d, want 2 (adventures only)", got)
	}
	s.Progress[PlanetEco].CompletedQuestIDs = []string{"eq1", "eq2"}
	if got := s.CompletionCount(PlanetEco); got != 2 {
		t.Errorf("CompletionCount(eco) = %d, want 2", got)
	}
	if got := s.CompletionCount("mars"); got != 0 {
		t.Errorf("CompletionCount(mars) = %d, want 0", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewGameState(testDefaults)
	s.SkillLevels["math_basics"] = 1
	c := s.Clone()

	c.Progress[PlanetMath].CompletedQuestIDs = append(c.Progress[PlanetMath].CompletedQuestIDs, "q")
	c.Progress[PlanetMath].MathAdventure.CompletedAdventures = append(c.Progress[PlanetMath].MathAdventure.CompletedAdventures, "a")
	c.UnlockedPlanetIDs[0] = "x"
	c.SkillLevels["math_basics"] = 3

	if len(s.Progress[PlanetMath].CompletedQuestIDs) != 0 {
		t.Error("clone shares completed quest slice")
	}
	if len(s.Progress[PlanetMath].MathAdventure.CompletedAdventures) != 0 {
		t.Error("clone shares adventure slice")
	}
	if s.UnlockedPlanetIDs[0] != PlanetMath {
		t.Error("clone shares unlocked planets")
	}
	if s.SkillLevels["math_basics"] != 1 {
		t.Error("clone shares skill levels")
	}
}

func TestUnlockedSkills(t *testing.T) {
	s := NewGameState(testDefaults)
	s.SkillLevels = map[string]int{"b": 1, "a": 2, "c": 0}
	if got := s.UnlockedSkills(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("UnlockedSkills() = %v", got)
	}
}

func TestRepositoryLoadMissing(t *testing.T) {
	repo := NewRepository(storage.NewMemory(), testDefaults, nil)
	s, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.UserName != "Star Explorer" || s.CurrentTheme != "dark" {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestRepositoryLoadCorrupt(t *testing.T) {
	kv := storage.NewMemory()
	kv.Put(GameStateKey, []byte("{not json"))
	kv.Put(EarnedAchievementsKey, []byte("nope"))
	repo := NewRepository(kv, testDefaults, nil)

	s, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.FirstTimeUser || s.TotalTokens != 0 {
		t.Errorf("expected defaults on corrupt blob, got %+v", s)
	}
	ids, err := repo.LoadEarned()
	if err != nil {
		t.Fatalf("LoadEarned() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no earned ids, got %v", ids)
	}
}

func TestRepositoryRepairsPartialBlob(t *testing.T) {
	kv := storage.NewMemory()
	// A save from before the adventure record, theme and skills existed.
	kv.Put(GameStateKey, []byte(`{
		"currentPlanetId": null,
		"unlockedPlanetIds": ["math"],
		"progress": {"math": {"completedQuestIds": ["q1"], "tokens": 20, "badges": []}},
		"totalTokens": 20,
		"userName": "Ada",
		"firstTimeUser": false
	}`))
	repo := NewRepository(kv, testDefaults, nil)

	s, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", s.Version, CurrentVersion)
	}
	if s.Progress[PlanetMath].MathAdventure == nil {
		t.Fatal("expected MATH adventure record to be filled in")
	}
	if s.Progress[PlanetEco] == nil || s.Progress[PlanetCode] == nil {
		t.Fatal("expected missing planets to get empty progress")
	}
	if !slices.Equal(s.UnlockedPlanetIDs, []PlanetID{PlanetMath}) {
		t.Errorf("stored unlock set should be kept, got %v", s.UnlockedPlanetIDs)
	}
	if s.CurrentTheme != "dark" || s.UserName != "Ada" {
		t.Errorf("theme=%q name=%q", s.CurrentTheme, s.UserName)
	}
	if s.SkillLevels == nil || s.Journey == nil {
		t.Error("expected nil collections to be initialized")
	}
}

func TestRepositorySaveLoad(t *testing.T) {
	repo := NewRepository(storage.NewFile(t.TempDir()), testDefaults, nil)
	s := NewGameState(testDefaults)
	s.TotalTokens = 42
	s.CurrentPlanetID = PlanetEco
	s.Progress[PlanetEco].CompletedQuestIDs = []string{"eq1_water_cycle"}
	ok := true
	s.Progress[PlanetMath].MathAdventure.StoryLog = []AdventureLogEntry{
		{Type: LogFeedback, Content: "Correct!", Timestamp: 1, IsCorrect: &ok},
	}

	if err := repo.Save(s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TotalTokens != 42 || got.CurrentPlanetID != PlanetEco {
		t.Errorf("unexpected state: %+v", got)
	}
	log := got.Progress[PlanetMath].MathAdventure.StoryLog
	if len(log) != 1 || log[0].IsCorrect == nil || !*log[0].IsCorrect {
		t.Errorf("story log not preserved: %+v", log)
	}

	if err := repo.SaveEarned([]string{"first_steps", "token_collector"}); err != nil {
		t.Fatalf("SaveEarned() error = %v", err)
	}
	ids, err := repo.LoadEarned()
	if err != nil {
		t.Fatalf("LoadEarned() error = %v", err)
	}
	if !slices.Equal(ids, []string{"first_steps", "token_collector"}) {
		t.Errorf("LoadEarned() = %v", ids)
	}
}

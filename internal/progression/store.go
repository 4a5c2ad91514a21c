package progression

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

// Repository loads and saves the game state blob.
type Repository interface {
	Load() (*models.GameState, error)
	Save(*models.GameState) error
}

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
	// ThemeApplier is called after a theme change is committed.
	ThemeApplier func(models.Theme)
}

// Store owns the live GameState. Every operation is applied atomically,
// saved, and then announced to listeners outside the lock.
type Store struct {
	mu         sync.Mutex
	reducer    Reducer
	state      *models.GameState
	repo       Repository
	logger     *slog.Logger
	listeners  []func(*models.GameState)
	applyTheme func(models.Theme)
}

// NewStore loads the saved state and returns a Store around it.
func NewStore(cat *catalog.Catalog, repo Repository, opts Options) (*Store, error) {
	state, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("loading progression: %w", err)
	}
	r := NewReducer(cat)
	if opts.Now != nil {
		r.Now = opts.Now
	}
	if opts.NewID != nil {
		r.NewID = opts.NewID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		reducer:    r,
		state:      state,
		repo:       repo,
		logger:     logger,
		applyTheme: opts.ThemeApplier,
	}, nil
}

// OnChange registers a listener called with each committed state. The
// state passed in is shared and must not be modified.
func (s *Store) OnChange(fn func(*models.GameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetThemeApplier replaces the theme side effect.
func (s *Store) SetThemeApplier(fn func(models.Theme)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyTheme = fn
}

// Catalog returns the static content the store was built with.
func (s *Store) Catalog() *catalog.Catalog {
	return s.reducer.Catalog
}

// State returns a copy of the current state.
func (s *Store) State() *models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies an action and reports the result.
func (s *Store) Dispatch(a Action) Result {
	s.mu.Lock()
	next, res := s.reducer.Reduce(s.state, a)
	if !res.Changed {
		s.mu.Unlock()
		s.logger.Debug("no-op", "action", fmt.Sprintf("%T", a), "ok", res.OK)
		return res
	}
	s.state = next
	if err := s.repo.Save(next); err != nil {
		s.logger.Error("saving game state", "error", err)
	}
	listeners := slices.Clone(s.listeners)
	applyTheme := s.applyTheme
	s.mu.Unlock()

	for _, e := range res.Events {
		s.logEvent(e)
		if e.Kind == EventThemeChanged && applyTheme != nil {
			applyTheme(models.Theme(e.Ref))
		}
	}
	for _, fn := range listeners {
		fn(next)
	}
	return res
}

func (s *Store) logEvent(e Event) {
	switch e.Kind {
	case EventAdventureAbandoned:
		s.logger.Warn("adventure abandoned on navigation", "adventure", e.Ref)
	case EventTokensCredited, EventStageCompleted, EventAdventureStarted:
		s.logger.Debug(string(e.Kind), "planet", e.Planet, "ref", e.Ref, "tokens", e.Tokens)
	default:
		s.logger.Info(string(e.Kind), "planet", e.Planet, "ref", e.Ref, "tokens", e.Tokens)
	}
}

func (s *Store) UnlockPlanet(p models.PlanetID) {
	s.Dispatch(UnlockPlanet{Planet: p})
}

func (s *Store) CompleteQuest(p models.PlanetID, questID string, tokens int) {
	s.Dispatch(CompleteQuest{Planet: p, QuestID: questID, Tokens: tokens})
}

// SubmitQuestOutcome reports whether the outcome was accepted.
func (s *Store) SubmitQuestOutcome(p models.PlanetID, questID string, outcome models.QuestOutcome) bool {
	return s.Dispatch(SubmitQuestOutcome{Planet: p, QuestID: questID, Outcome: outcome}).OK
}

// SpendTokens reports false, leaving the balance untouched, when funds
// are short.
func (s *Store) SpendTokens(amount int) bool {
	return s.Dispatch(SpendTokens{Amount: amount}).OK
}

func (s *Store) StartPlanet(p models.PlanetID) {
	s.Dispatch(StartPlanet{Planet: p})
}

// SetActivePlanet navigates; pass "" for the hub.
func (s *Store) SetActivePlanet(p models.PlanetID) {
	s.Dispatch(SetActivePlanet{Planet: p})
}

func (s *Store) StartMathAdventure(adventureID string, mode models.AdventureMode, totalStages int) {
	s.Dispatch(StartMathAdventure{AdventureID: adventureID, Mode: mode, TotalStages: totalStages})
}

func (s *Store) CompleteAdventureStage(stageID string, tokens int) {
	s.Dispatch(CompleteAdventureStage{StageID: stageID, Tokens: tokens})
}

func (s *Store) EndMathAdventure(success bool) {
	s.Dispatch(EndMathAdventure{Success: success})
}

func (s *Store) AppendAdventureLog(e models.AdventureLogEntry) {
	s.Dispatch(AppendAdventureLog{Entry: e})
}

func (s *Store) SetCurrentTheme(theme models.Theme) {
	s.Dispatch(SetTheme{Theme: theme})
}

func (s *Store) CreditAchievement(id string, tokens int) {
	s.Dispatch(CreditAchievement{AchievementID: id, Tokens: tokens})
}

func (s *Store) PurchaseSkill(tree catalog.TreeID, skillID string) bool {
	return s.Dispatch(PurchaseSkill{Tree: tree, Skill: skillID}).OK
}

func (s *Store) RecordSession(d time.Duration) {
	s.Dispatch(RecordSession{Duration: d})
}

func (s *Store) RecordActivity(now time.Time) {
	s.Dispatch(RecordActivity{At: now})
}

// PlanetProgress returns the planet's completion percentage.
func (s *Store) PlanetProgress(p models.PlanetID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PlanetProgress(s.reducer.Catalog, s.state, p)
}

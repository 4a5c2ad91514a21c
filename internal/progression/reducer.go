// Package progression holds the game's progression state machine: pure
// reducers over models.GameState and the Store that owns the live state.
package progression

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
	"github.com/tatianab/stemverse/internal/skilltree"
)

// EventKind tags a notable transition produced by a reduction.
type EventKind string

const (
	EventPlanetUnlocked     EventKind = "planet_unlocked"
	EventQuestCompleted     EventKind = "quest_completed"
	EventTokensCredited     EventKind = "tokens_credited"
	EventTokensSpent        EventKind = "tokens_spent"
	EventAdventureStarted   EventKind = "adventure_started"
	EventStageCompleted     EventKind = "stage_completed"
	EventAdventureCompleted EventKind = "adventure_completed"
	EventAdventureAbandoned EventKind = "adventure_abandoned"
	EventMasterBadge        EventKind = "master_badge"
	EventAchievementCredit  EventKind = "achievement_credited"
	EventSkillPurchased     EventKind = "skill_purchased"
	EventThemeChanged       EventKind = "theme_changed"
)

type Event struct {
	Kind   EventKind
	Planet models.PlanetID
	Ref    string
	Tokens int
}

// Result reports what a reduction did. OK is false only for rejected
// spends and purchases.
type Result struct {
	Changed bool
	OK      bool
	Events  []Event
}

// Action is a named store operation.
type Action interface {
	apply(t *tx)
}

// Reducer applies actions to a state. Its clock and id source are
// injectable so reductions are reproducible in tests.
type Reducer struct {
	Catalog *catalog.Catalog
	Now     func() time.Time
	NewID   func() string
}

func NewReducer(cat *catalog.Catalog) Reducer {
	return Reducer{Catalog: cat, Now: time.Now, NewID: uuid.NewString}
}

// Reduce applies a to a copy of s. When nothing changes the original
// pointer is returned.
func (r Reducer) Reduce(s *models.GameState, a Action) (*models.GameState, Result) {
	t := &tx{r: r, s: s.Clone(), ok: true}
	a.apply(t)
	if !t.changed {
		return s, Result{OK: t.ok}
	}
	return t.s, Result{Changed: true, OK: t.ok, Events: t.events}
}

// tx is the working copy of a single reduction.
type tx struct {
	r       Reducer
	s       *models.GameState
	changed bool
	ok      bool
	events  []Event
}

func (t *tx) emit(e Event) {
	t.events = append(t.events, e)
}

func (t *tx) milestone(kind models.MilestoneType, title string, planet models.PlanetID, ref string) {
	t.s.Journey = append(t.s.Journey, models.Milestone{
		ID:       t.r.NewID(),
		Type:     kind,
		Title:    title,
		PlanetID: planet,
		RefID:    ref,
		At:       t.r.Now().UTC(),
	})
}

func (t *tx) configured(p models.PlanetID) bool {
	_, ok := t.r.Catalog.Planet(p)
	return ok
}

// progress returns the planet's progress, creating it if missing.
func (t *tx) progress(p models.PlanetID) *models.PlanetProgress {
	if t.s.Progress == nil {
		t.s.Progress = make(map[models.PlanetID]*models.PlanetProgress)
	}
	pp := t.s.Progress[p]
	if pp == nil {
		pp = models.NewPlanetProgress(p)
		t.s.Progress[p] = pp
	}
	if p == models.PlanetMath && pp.MathAdventure == nil {
		pp.MathAdventure = models.NewMathAdventure()
	}
	return pp
}

func (t *tx) credit(p models.PlanetID, pp *models.PlanetProgress, tokens int, ref string) {
	if tokens <= 0 {
		return
	}
	pp.Tokens += tokens
	t.s.TotalTokens += tokens
	t.emit(Event{Kind: EventTokensCredited, Planet: p, Ref: ref, Tokens: tokens})
}

func (t *tx) unlock(p models.PlanetID) {
	if t.s.IsUnlocked(p) {
		return
	}
	t.s.UnlockedPlanetIDs = append(t.s.UnlockedPlanetIDs, p)
	t.progress(p)
	name := string(p)
	if planet, ok := t.r.Catalog.Planet(p); ok {
		name = planet.Name
	}
	t.milestone(models.MilestonePlanetUnlocked, "Unlocked "+name, p, "")
	t.emit(Event{Kind: EventPlanetUnlocked, Planet: p})
	t.changed = true
}

// afterCompletion runs the single-step unlock cascade and the master badge
// check for planet p.
func (t *tx) afterCompletion(p models.PlanetID) {
	if target := t.r.Catalog.CompletionTarget(p); target > 0 && t.s.CompletionCount(p) >= target {
		if next, ok := t.r.Catalog.Next(p); ok {
			t.unlock(next)
		}
	}
	if t.s.MasterBadgeEarned {
		return
	}
	for _, planet := range t.r.Catalog.Planets {
		if t.s.CompletionCount(planet.ID) < planet.CompletionTarget {
			return
		}
	}
	t.s.MasterBadgeEarned = true
	t.milestone(models.MilestoneMasterBadge, "Master of the STEMverse", "", "")
	t.emit(Event{Kind: EventMasterBadge})
}

// leave ends an in-flight math run when navigating away from MATH.
func (t *tx) leave(target models.PlanetID) {
	if t.s.CurrentPlanetID != models.PlanetMath || target == models.PlanetMath {
		return
	}
	pp := t.s.Progress[models.PlanetMath]
	if pp == nil || !pp.MathAdventure.Active() {
		return
	}
	id := pp.MathAdventure.SelectedAdventureID
	t.endAdventure(false)
	t.emit(Event{Kind: EventAdventureAbandoned, Planet: models.PlanetMath, Ref: id})
}

func (t *tx) endAdventure(success bool) {
	pp := t.progress(models.PlanetMath)
	m := pp.MathAdventure
	if !m.Active() {
		return
	}
	id := m.SelectedAdventureID
	if success && !slices.Contains(m.CompletedAdventures, id) {
		m.CompletedAdventures = append(m.CompletedAdventures, id)
		t.credit(models.PlanetMath, pp, t.r.Catalog.Tokens.AdventureCompletion, id)
		title := id
		if adv, ok := t.r.Catalog.Adventure(id); ok {
			title = adv.Title
		}
		t.milestone(models.MilestoneAdventureCompleted, "Completed "+title, models.PlanetMath, id)
		t.emit(Event{Kind: EventAdventureCompleted, Planet: models.PlanetMath, Ref: id})
	}
	m.SelectedAdventureID = ""
	m.CurrentAdventureMode = ""
	m.CurrentStageID = ""
	m.CurrentAdventureTotalStages = 0
	m.CompletedStages = []string{}
	m.StoryLog = []models.AdventureLogEntry{}
	t.changed = true
	if success {
		t.afterCompletion(models.PlanetMath)
	}
}

// UnlockPlanet adds a configured planet to the unlocked set.
type UnlockPlanet struct {
	Planet models.PlanetID
}

func (a UnlockPlanet) apply(t *tx) {
	if !t.configured(a.Planet) {
		return
	}
	t.unlock(a.Planet)
}

// CompleteQuest records a finished quest and credits its tokens. MATH
// tolerates re-entry: the id is kept once but tokens are credited again.
type CompleteQuest struct {
	Planet  models.PlanetID
	QuestID string
	Tokens  int
}

func (a CompleteQuest) apply(t *tx) {
	if !t.configured(a.Planet) || a.QuestID == "" {
		return
	}
	pp := t.progress(a.Planet)
	done := slices.Contains(pp.CompletedQuestIDs, a.QuestID)
	if done && a.Planet != models.PlanetMath {
		return
	}
	if !done {
		pp.CompletedQuestIDs = append(pp.CompletedQuestIDs, a.QuestID)
		title := a.QuestID
		if planet, ok := t.r.Catalog.Planet(a.Planet); ok {
			if q, ok := planet.Quest(a.QuestID); ok {
				title = q.Title
			}
		}
		t.milestone(models.MilestoneQuestCompleted, "Completed "+title, a.Planet, a.QuestID)
		t.emit(Event{Kind: EventQuestCompleted, Planet: a.Planet, Ref: a.QuestID})
	}
	if a.Tokens > 0 {
		t.credit(a.Planet, pp, a.Tokens, a.QuestID)
	} else if done {
		return
	}
	t.changed = true
	t.afterCompletion(a.Planet)
}

// SubmitQuestOutcome resolves a typed quest outcome into a completion.
// A failed code evaluation completes nothing.
type SubmitQuestOutcome struct {
	Planet  models.PlanetID
	QuestID string
	Outcome models.QuestOutcome
}

func (a SubmitQuestOutcome) apply(t *tx) {
	tokens := t.r.Catalog.QuestReward(a.Planet)
	perfect := false
	switch o := a.Outcome.(type) {
	case models.EcoDesignOutcome:
		if o.TokensAwarded > 0 {
			tokens = o.TokensAwarded
		}
		perfect = o.Score >= 100
	case models.CodeSubmissionOutcome:
		if !o.Evaluation.Passed {
			t.ok = false
			return
		}
		if o.TokensAwarded > 0 {
			tokens = o.TokensAwarded
		}
		perfect = o.Evaluation.Score >= 100
	}
	CompleteQuest{Planet: a.Planet, QuestID: a.QuestID, Tokens: tokens}.apply(t)
	if t.changed && perfect {
		t.s.Stats.PerfectScores++
	}
}

// SpendTokens debits the balance; it is rejected when funds are short.
type SpendTokens struct {
	Amount int
}

func (a SpendTokens) apply(t *tx) {
	if a.Amount < 0 || a.Amount > t.s.TotalTokens {
		t.ok = false
		return
	}
	if a.Amount == 0 {
		return
	}
	t.s.TotalTokens -= a.Amount
	t.emit(Event{Kind: EventTokensSpent, Tokens: a.Amount})
	t.changed = true
}

// StartPlanet enters a planet and ends the first-time flow.
type StartPlanet struct {
	Planet models.PlanetID
}

func (a StartPlanet) apply(t *tx) {
	if !t.configured(a.Planet) {
		return
	}
	t.leave(a.Planet)
	if t.s.CurrentPlanetID != a.Planet || t.s.FirstTimeUser {
		t.s.CurrentPlanetID = a.Planet
		t.s.FirstTimeUser = false
		t.changed = true
	}
}

// SetActivePlanet navigates directly; the empty id returns to the hub.
// Leaving MATH abandons an in-flight adventure.
type SetActivePlanet struct {
	Planet models.PlanetID
}

func (a SetActivePlanet) apply(t *tx) {
	if a.Planet != "" && !t.configured(a.Planet) {
		return
	}
	t.leave(a.Planet)
	if t.s.CurrentPlanetID != a.Planet {
		t.s.CurrentPlanetID = a.Planet
		t.changed = true
	}
}

// StartMathAdventure begins a fresh run, replacing any run in progress.
type StartMathAdventure struct {
	AdventureID string
	Mode        models.AdventureMode
	TotalStages int
}

func (a StartMathAdventure) apply(t *tx) {
	if a.AdventureID == "" {
		return
	}
	m := t.progress(models.PlanetMath).MathAdventure
	m.SelectedAdventureID = a.AdventureID
	m.CurrentAdventureMode = a.Mode
	if m.CurrentAdventureMode == "" {
		m.CurrentAdventureMode = models.ModeTextOnly
	}
	m.CurrentStageID = "stage_0"
	m.CurrentAdventureTotalStages = max(a.TotalStages, 0)
	m.CompletedStages = []string{}
	m.StoryLog = []models.AdventureLogEntry{}
	t.emit(Event{Kind: EventAdventureStarted, Planet: models.PlanetMath, Ref: a.AdventureID})
	t.changed = true
}

// CompleteAdventureStage credits a stage once per run.
type CompleteAdventureStage struct {
	StageID string
	Tokens  int
}

func (a CompleteAdventureStage) apply(t *tx) {
	pp := t.progress(models.PlanetMath)
	m := pp.MathAdventure
	if !m.Active() || a.StageID == "" || slices.Contains(m.CompletedStages, a.StageID) {
		return
	}
	m.CompletedStages = append(m.CompletedStages, a.StageID)
	m.CurrentStageID = a.StageID
	t.credit(models.PlanetMath, pp, a.Tokens, a.StageID)
	t.emit(Event{Kind: EventStageCompleted, Planet: models.PlanetMath, Ref: a.StageID})
	t.changed = true
}

// EndMathAdventure closes the run, recording it when it succeeded.
type EndMathAdventure struct {
	Success bool
}

func (a EndMathAdventure) apply(t *tx) {
	t.endAdventure(a.Success)
}

// AppendAdventureLog adds a transcript line to the active run.
type AppendAdventureLog struct {
	Entry models.AdventureLogEntry
}

func (a AppendAdventureLog) apply(t *tx) {
	m := t.progress(models.PlanetMath).MathAdventure
	if !m.Active() {
		return
	}
	e := a.Entry
	if e.Timestamp == 0 {
		e.Timestamp = t.r.Now().UnixMilli()
	}
	m.StoryLog = append(m.StoryLog, e)
	t.changed = true
}

// SetTheme switches to a theme defined in the catalog.
type SetTheme struct {
	Theme models.Theme
}

func (a SetTheme) apply(t *tx) {
	if _, ok := t.r.Catalog.Theme(a.Theme); !ok || t.s.CurrentTheme == a.Theme {
		return
	}
	t.s.CurrentTheme = a.Theme
	t.emit(Event{Kind: EventThemeChanged, Ref: string(a.Theme)})
	t.changed = true
}

// CreditAchievement pays an achievement reward straight into the balance.
type CreditAchievement struct {
	AchievementID string
	Tokens        int
}

func (a CreditAchievement) apply(t *tx) {
	if a.AchievementID == "" {
		return
	}
	if a.Tokens > 0 {
		t.s.TotalTokens += a.Tokens
	}
	title := a.AchievementID
	if ach, ok := t.r.Catalog.Achievement(a.AchievementID); ok {
		title = ach.Name
	}
	t.milestone(models.MilestoneAchievementEarned, "Earned "+title, "", a.AchievementID)
	t.emit(Event{Kind: EventAchievementCredit, Ref: a.AchievementID, Tokens: max(a.Tokens, 0)})
	t.changed = true
}

// PurchaseSkill unlocks a skill or raises its level, paying
// skilltree.Cost at the current level.
type PurchaseSkill struct {
	Tree  catalog.TreeID
	Skill string
}

func (a PurchaseSkill) apply(t *tx) {
	tree, ok := t.r.Catalog.Tree(a.Tree)
	if !ok {
		t.ok = false
		return
	}
	skill, ok := tree.Skill(a.Skill)
	if !ok {
		t.ok = false
		return
	}
	level := skilltree.Level(skill, t.s.SkillLevels)
	if level == 0 {
		unlocked := skilltree.UnlockedIDs(tree, t.s.SkillLevels)
		if !slices.ContainsFunc(skilltree.UnlockableIn(tree, unlocked), func(n catalog.SkillNode) bool { return n.ID == skill.ID }) {
			t.ok = false
			return
		}
	} else if level >= skill.MaxLevel {
		t.ok = false
		return
	}
	cost := skilltree.Cost(skill, level)
	if cost > t.s.TotalTokens {
		t.ok = false
		return
	}
	t.s.TotalTokens -= cost
	if t.s.SkillLevels == nil {
		t.s.SkillLevels = make(map[string]int)
	}
	t.s.SkillLevels[skill.ID] = level + 1
	if level == 0 {
		t.milestone(models.MilestoneSkillUnlocked, "Learned "+skill.Name, "", skill.ID)
	}
	t.emit(Event{Kind: EventSkillPurchased, Ref: skill.ID, Tokens: cost})
	t.changed = true
}

// RecordSession adds play time in whole minutes.
type RecordSession struct {
	Duration time.Duration
}

func (a RecordSession) apply(t *tx) {
	minutes := int(a.Duration / time.Minute)
	if minutes <= 0 {
		return
	}
	t.s.Stats.TimeSpentMinutes += minutes
	t.changed = true
}

// RecordActivity updates the daily streak: same day is a no-op, the next
// day extends it, anything else restarts it at 1.
type RecordActivity struct {
	At time.Time
}

const dateLayout = "2006-01-02"

func (a RecordActivity) apply(t *tx) {
	day := a.At.Format(dateLayout)
	st := &t.s.Stats
	if st.LastActiveDate == day {
		return
	}
	streak := 1
	if last, err := time.ParseInLocation(dateLayout, st.LastActiveDate, a.At.Location()); err == nil {
		if last.AddDate(0, 0, 1).Format(dateLayout) == day {
			streak = st.StreakDays + 1
		}
	}
	st.StreakDays = streak
	st.LastActiveDate = day
	t.changed = true
}

// PlanetProgress is the completion percentage of a planet, capped at 100.
// Unconfigured planets report 0.
func PlanetProgress(cat *catalog.Catalog, s *models.GameState, p models.PlanetID) float64 {
	target := cat.CompletionTarget(p)
	if target <= 0 {
		return 0
	}
	return min(100, 100*float64(s.CompletionCount(p))/float64(target))
}

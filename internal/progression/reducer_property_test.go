package progression

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

var propPlanets = []models.PlanetID{models.PlanetMath, models.PlanetEco, models.PlanetCode, "", "pluto"}

var propSkills = []struct {
	tree  catalog.TreeID
	skill string
}{
	{"math", "math_basics"},
	{"math", "algebra_foundation"},
	{"eco", "water_cycle"},
	{catalog.GlobalTree, "critical_thinking"},
	{catalog.GlobalTree, "leadership"},
}

// actionFor maps a generated (op, arg) pair onto a store action.
func actionFor(op, arg int) Action {
	switch op % 12 {
	case 0:
		return CompleteQuest{Planet: propPlanets[arg%3], QuestID: fmt.Sprintf("q%d", arg%7), Tokens: arg % 60}
	case 1:
		return SpendTokens{Amount: arg}
	case 2:
		return StartMathAdventure{AdventureID: fmt.Sprintf("adv%d", arg%4), Mode: models.ModeTextOnly, TotalStages: 5}
	case 3:
		return CompleteAdventureStage{StageID: fmt.Sprintf("stage_%d", arg%5), Tokens: arg % 30}
	case 4:
		return EndMathAdventure{Success: arg%2 == 0}
	case 5:
		return SetActivePlanet{Planet: propPlanets[arg%len(propPlanets)]}
	case 6:
		return StartPlanet{Planet: propPlanets[arg%len(propPlanets)]}
	case 7:
		return UnlockPlanet{Planet: propPlanets[arg%len(propPlanets)]}
	case 8:
		s := propSkills[arg%len(propSkills)]
		return PurchaseSkill{Tree: s.tree, Skill: s.skill}
	case 9:
		return CreditAchievement{AchievementID: "first_steps", Tokens: arg % 100}
	case 10:
		return AppendAdventureLog{Entry: models.AdventureLogEntry{Type: models.LogNarration, Content: "…"}}
	default:
		return RecordSession{Duration: time.Duration(arg) * time.Minute}
	}
}

func propReducer() Reducer {
	r := NewReducer(catalog.Default())
	r.Now = func() time.Time { return testNow }
	r.NewID = func() string { return "id" }
	return r
}

func mathOnlyState() *models.GameState {
	s := models.NewGameState(catalog.Default().Defaults())
	s.UnlockedPlanetIDs = []models.PlanetID{models.PlanetMath}
	return s
}

func isSubset[T comparable](a, b []T) bool {
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}

func TestMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sets only grow and tokens stay non-negative", prop.ForAll(
		func(ops []int, args []int) bool {
			r := propReducer()
			s := mathOnlyState()
			for i := 0; i < len(ops) && i < len(args); i++ {
				next, _ := r.Reduce(s, actionFor(ops[i], args[i]))
				if next.TotalTokens < 0 {
					return false
				}
				if !isSubset(s.UnlockedPlanetIDs, next.UnlockedPlanetIDs) {
					return false
				}
				for id, pp := range s.Progress {
					np := next.Progress[id]
					if np == nil || !isSubset(pp.CompletedQuestIDs, np.CompletedQuestIDs) {
						return false
					}
				}
				before := s.Progress[models.PlanetMath].MathAdventure.CompletedAdventures
				after := next.Progress[models.PlanetMath].MathAdventure.CompletedAdventures
				if !isSubset(before, after) {
					return false
				}
				if s.MasterBadgeEarned && !next.MasterBadgeEarned {
					return false
				}
				if next.Progress[models.PlanetMath].MathAdventure == nil {
					return false
				}
				s = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 11)),
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("the input state is left untouched", prop.ForAll(
		func(ops []int, args []int) bool {
			r := propReducer()
			s := mathOnlyState()
			for i := 0; i < len(ops) && i < len(args); i++ {
				before := s.Clone()
				next, _ := r.Reduce(s, actionFor(ops[i], args[i]))
				if s.TotalTokens != before.TotalTokens ||
					!slices.Equal(s.UnlockedPlanetIDs, before.UnlockedPlanetIDs) ||
					len(s.Journey) != len(before.Journey) ||
					len(s.Progress[models.PlanetMath].MathAdventure.CompletedStages) != len(before.Progress[models.PlanetMath].MathAdventure.CompletedStages) {
					return false
				}
				s = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 11)),
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}

// ledger is an independent model of the token economy.
type ledger struct {
	total     int
	quests    map[string]bool
	run       string
	stages    map[string]bool
	completed map[string]bool
}

func TestTokenConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	bonus := catalog.Default().Tokens.AdventureCompletion

	properties.Property("balance equals distinct awards minus accepted spends", prop.ForAll(
		func(ops []int, args []int) bool {
			r := propReducer()
			s := models.NewGameState(catalog.Default().Defaults())
			l := ledger{quests: map[string]bool{}, stages: map[string]bool{}, completed: map[string]bool{}}

			for i := 0; i < len(ops) && i < len(args); i++ {
				arg := args[i]
				var a Action
				switch ops[i] % 5 {
				case 0:
					q := CompleteQuest{Planet: propPlanets[arg%3], QuestID: fmt.Sprintf("q%d", arg%7), Tokens: arg % 60}
					key := string(q.Planet) + "/" + q.QuestID
					if q.Planet == models.PlanetMath || !l.quests[key] {
						l.total += q.Tokens
					}
					l.quests[key] = true
					a = q
				case 1:
					a = SpendTokens{Amount: arg}
				case 2:
					st := StartMathAdventure{AdventureID: fmt.Sprintf("adv%d", arg%4), TotalStages: 5}
					l.run = st.AdventureID
					l.stages = map[string]bool{}
					a = st
				case 3:
					cs := CompleteAdventureStage{StageID: fmt.Sprintf("stage_%d", arg%5), Tokens: arg % 30}
					if l.run != "" && !l.stages[cs.StageID] {
						l.stages[cs.StageID] = true
						l.total += cs.Tokens
					}
					a = cs
				default:
					end := EndMathAdventure{Success: arg%2 == 0}
					if l.run != "" {
						if end.Success && !l.completed[l.run] {
							l.completed[l.run] = true
							l.total += bonus
						}
						l.run = ""
					}
					a = end
				}

				next, res := r.Reduce(s, a)
				if spend, ok := a.(SpendTokens); ok {
					wantOK := spend.Amount <= l.total
					if res.OK != wantOK {
						return false
					}
					if wantOK {
						l.total -= spend.Amount
					}
				}
				if next.TotalTokens != l.total {
					return false
				}
				s = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 4)),
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}

func TestIdempotentCompletions(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("repeating a non-MATH quest credits once", prop.ForAll(
		func(planetIdx int, quest string, tokens int) bool {
			r := propReducer()
			p := []models.PlanetID{models.PlanetEco, models.PlanetCode}[planetIdx]
			s := models.NewGameState(catalog.Default().Defaults())
			once, _ := r.Reduce(s, CompleteQuest{Planet: p, QuestID: "q" + quest, Tokens: tokens})
			twice, res := r.Reduce(once, CompleteQuest{Planet: p, QuestID: "q" + quest, Tokens: tokens})
			return !res.Changed && twice.TotalTokens == once.TotalTokens && once.TotalTokens == tokens
		},
		gen.IntRange(0, 1),
		gen.AlphaString(),
		gen.IntRange(0, 500),
	))

	properties.Property("repeating a stage credits once", prop.ForAll(
		func(stage int, tokens int) bool {
			r := propReducer()
			s, _ := r.Reduce(models.NewGameState(catalog.Default().Defaults()), StartMathAdventure{AdventureID: "adv1", TotalStages: 5})
			id := fmt.Sprintf("stage_%d", stage)
			once, _ := r.Reduce(s, CompleteAdventureStage{StageID: id, Tokens: tokens})
			twice, _ := r.Reduce(once, CompleteAdventureStage{StageID: id, Tokens: tokens})
			return twice.TotalTokens == tokens && len(twice.Progress[models.PlanetMath].MathAdventure.CompletedStages) == 1
		},
		gen.IntRange(1, 10),
		gen.IntRange(0, 500),
	))

	properties.Property("spending more than the balance is rejected", prop.ForAll(
		func(balance, extra int) bool {
			r := propReducer()
			s := models.NewGameState(catalog.Default().Defaults())
			s.TotalTokens = balance
			next, res := r.Reduce(s, SpendTokens{Amount: balance + extra})
			return !res.OK && !res.Changed && next.TotalTokens == balance
		},
		gen.IntRange(0, 1000),
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t)
}

func TestCascadeUnlocksOnce(t *testing.T) {
	r := propReducer()
	s := mathOnlyState()
	s, _ = r.Reduce(s, CompleteQuest{Planet: models.PlanetMath, QuestID: "mq1_fraction_bridge", Tokens: 1})
	for i, adv := range []string{"a", "b", "c", "d"} {
		s, _ = r.Reduce(s, StartMathAdventure{AdventureID: adv, TotalStages: 1})
		s, _ = r.Reduce(s, EndMathAdventure{Success: true})
		unlocked := s.IsUnlocked(models.PlanetEco)
		if i < 2 && unlocked {
			t.Fatalf("ECO unlocked after %d adventures", i+1)
		}
		if i >= 2 && !unlocked {
			t.Fatalf("ECO locked after %d adventures", i+1)
		}
	}
	n := 0
	for _, p := range s.UnlockedPlanetIDs {
		if p == models.PlanetEco {
			n++
		}
	}
	if n != 1 {
		t.Errorf("ECO unlocked %d times", n)
	}
	if s.IsUnlocked(models.PlanetCode) {
		t.Error("cascade must be single-step")
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/stemverse/internal/achievements"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/config"
	"github.com/tatianab/stemverse/internal/engine"
	"github.com/tatianab/stemverse/internal/models"
	"github.com/tatianab/stemverse/internal/notify"
	"github.com/tatianab/stemverse/internal/progression"
	"github.com/tatianab/stemverse/internal/skilltree"
	"github.com/tatianab/stemverse/internal/storage"
)

const (
	maxStages   = 3
	maxAttempts = 3
)

type sim struct {
	ctx    context.Context
	cat    *catalog.Catalog
	store  *progression.Store
	seq    *notify.Sequencer
	ledger *achievements.Ledger
	eval   *achievements.Evaluator
	tutor  *engine.Engine
	player *genai.GenerativeModel
}

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// The tutor generates content; a second model plays the student.
	tutor, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer tutor.Close()

	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()

	cat := catalog.Default()
	repo := models.NewRepository(storage.NewMemory(), cat.Defaults(), logger)
	store, err := progression.NewStore(cat, repo, progression.Options{Logger: logger})
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	ledger, err := achievements.OpenLedger(repo)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	eval := achievements.NewEvaluator(cat)

	s := &sim{
		ctx:    ctx,
		cat:    cat,
		store:  store,
		seq:    notify.New(store, eval, ledger, logger),
		ledger: ledger,
		eval:   eval,
		tutor:  tutor,
		player: playerClient.GenerativeModel(cfg.Model),
	}
	s.seq.Attach()
	s.drainToasts()

	fmt.Println("--- Step 1: Math adventure ---")
	s.playAdventure()
	fmt.Println("--- Step 2: Eco quest ---")
	s.playEcoQuest()
	fmt.Println("--- Step 3: Code quest ---")
	s.playCodeQuest()
	fmt.Println("--- Step 4: Skill shopping ---")
	s.buySkill()
	s.summary()
}

func (s *sim) playAdventure() {
	adv := s.cat.Adventures[0]
	stages := min(adv.EstimatedStages, maxStages)
	s.store.StartPlanet(models.PlanetMath)
	s.store.StartMathAdventure(adv.ID, models.ModeTextOnly, stages)

	story, err := s.tutor.StoryIntro(s.ctx, adv)
	if err != nil {
		fmt.Printf("Error getting intro: %v\n", err)
		return
	}
	fmt.Printf("Intro: %s\n\n", story)

	for stage := 1; stage <= stages; stage++ {
		p, err := s.tutor.GenerateMathProblem(s.ctx, adv, story, stage, stages)
		if err != nil {
			fmt.Printf("Error generating problem: %v\n", err)
			s.store.EndMathAdventure(false)
			return
		}
		fmt.Printf("Stage %d/%d: %s\n", stage, stages, p.Text)

		answer, solved := s.solveProblem(p, story)
		if !solved {
			fmt.Println("Player gave up on the adventure.")
			s.store.EndMathAdventure(false)
			return
		}
		s.store.CompleteAdventureStage(fmt.Sprintf("stage_%d", stage), s.cat.Tokens.QuestStage)
		s.drainToasts()

		next, err := s.tutor.ContinueStory(s.ctx, adv, p, answer, story, stage, stages)
		if err != nil {
			next = "The journey continues..."
		}
		story += "\n" + next
		fmt.Printf("Story: %s\n\n", next)
	}
	s.store.EndMathAdventure(true)
	s.drainToasts()
}

func (s *sim) solveProblem(p *engine.Problem, story string) (string, bool) {
	hint := ""
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := fmt.Sprintf("You are a student solving a math problem in a space adventure.\nProblem: %s\nAnswer format: %s\n", p.Text, p.AnswerFormat)
		for _, o := range p.Options {
			prompt += fmt.Sprintf("Option %s: %s\n", o.ID, o.Text)
		}
		if hint != "" {
			prompt += "Hint: " + hint + "\n"
		}
		prompt += "Return ONLY your answer (the option id for multiple choice)."
		answer := s.ask(prompt, "0")
		fmt.Printf("Player answer: %s\n", answer)

		ev, err := s.tutor.EvaluateMathAnswer(s.ctx, p, answer)
		if err != nil {
			fmt.Printf("Error evaluating answer: %v\n", err)
			continue
		}
		fmt.Printf("Tutor: %s\n", ev.Feedback)
		if ev.IsCorrect {
			return answer, true
		}
		if hint == "" && s.store.SpendTokens(s.cat.Tokens.HintCost) {
			if h, err := s.tutor.MathHint(s.ctx, p, story); err == nil {
				hint = h
				fmt.Printf("Hint bought: %s\n", hint)
			}
		}
	}
	return "", false
}

func (s *sim) playEcoQuest() {
	planet, _ := s.cat.Planet(models.PlanetEco)
	q := planet.Quests[0]
	s.store.StartPlanet(models.PlanetEco)

	sc, err := s.tutor.GenerateEcoScenario(s.ctx, q)
	if err != nil {
		fmt.Printf("Error generating scenario: %v\n", err)
		return
	}
	fmt.Printf("Scenario: %s\nChallenge: %s\n", sc.Description, sc.Question)

	design := s.ask(fmt.Sprintf("You are a student. Propose a short, concrete sustainable solution (under 120 words) for this challenge.\nScenario: %s\nChallenge: %s", sc.Description, sc.Question), "Plant native wetlands to filter the water.")
	fmt.Printf("Player design: %s\n", design)

	ev, err := s.tutor.EvaluateEcoDesign(s.ctx, sc, design)
	if err != nil {
		fmt.Printf("Error evaluating design: %v\n", err)
		return
	}
	fmt.Printf("Score: %d\n", ev.Score)
	s.store.SubmitQuestOutcome(models.PlanetEco, q.ID, ev.Outcome(s.cat.Tokens.EcoQuestCompletion))
	s.drainToasts()
}

func (s *sim) playCodeQuest() {
	planet, _ := s.cat.Planet(models.PlanetCode)
	q := planet.Quests[0]
	s.store.StartPlanet(models.PlanetCode)

	ch, err := s.tutor.GenerateCodeChallenge(s.ctx, q, "python")
	if err != nil {
		fmt.Printf("Error generating challenge: %v\n", err)
		return
	}
	fmt.Printf("Challenge: %s\n%s\n", ch.Title, ch.Description)

	var prev *engine.CodeAnalysis
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := fmt.Sprintf("You are a student programmer. Solve this %s challenge.\n%s\n%s\n", ch.Language, ch.Title, ch.Description)
		if prev != nil {
			prompt += "Reviewer feedback on your last attempt: " + prev.Analysis + "\n"
		}
		prompt += "Return ONLY the code, without markdown fences."
		code := s.ask(prompt, "print('hello')")

		a, err := s.tutor.AnalyzeCode(s.ctx, ch, code)
		if err != nil {
			fmt.Printf("Error analyzing code: %v\n", err)
			return
		}
		fmt.Printf("Attempt %d: score %d, passed %v\n", attempt, a.Score, a.Passed)
		ok := s.store.SubmitQuestOutcome(models.PlanetCode, q.ID, models.CodeSubmissionOutcome{
			Evaluation:    a.Evaluation(),
			TokensAwarded: s.cat.Tokens.CodeQuestCompletion,
		})
		s.drainToasts()
		if ok {
			return
		}
		prev = a
	}
}

func (s *sim) buySkill() {
	st := s.store.State()
	for _, tree := range s.cat.SkillTrees {
		unlocked := skilltree.UnlockedIDs(&tree, st.SkillLevels)
		for _, sk := range skilltree.UnlockableIn(&tree, unlocked) {
			if skilltree.Cost(sk, 0) > st.TotalTokens {
				continue
			}
			if s.store.PurchaseSkill(tree.ID, sk.ID) {
				fmt.Printf("Unlocked skill %s in %s\n", sk.Name, tree.Name)
				s.drainToasts()
				return
			}
		}
	}
	fmt.Println("No affordable skill.")
}

// drainToasts prints and dismisses every achievement the sequencer surfaces.
func (s *sim) drainToasts() {
	for {
		a, ok := s.seq.Current()
		if !ok {
			return
		}
		fmt.Printf("ACHIEVEMENT: %s %s (+%d tokens)\n", a.Icon, a.Name, a.Rewards.Tokens)
		s.seq.Dismiss()
	}
}

func (s *sim) summary() {
	st := s.store.State()
	fmt.Println("\n--- Summary ---")
	fmt.Printf("Tokens: %d\n", st.TotalTokens)
	for _, p := range s.cat.Planets {
		fmt.Printf("%s: %.0f%%\n", p.Name, s.store.PlanetProgress(p.ID))
	}
	fmt.Printf("Achievements: %s\n", strings.Join(s.ledger.IDs(), ", "))
	fmt.Printf("Title: %s\n", s.eval.PlayerTitle(s.ledger.IDs()))
	fmt.Printf("Master badge: %v\n", st.MasterBadgeEarned)
	for _, ms := range st.Journey {
		fmt.Printf("  %s  %s\n", ms.At.Format("15:04:05"), ms.Title)
	}
}

func (s *sim) ask(prompt, fallback string) string {
	resp, err := s.player.GenerateContent(s.ctx, genai.Text(prompt))
	if err != nil {
		return fallback
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return fallback
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}

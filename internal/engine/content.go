package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

const (
	euclidSystem = "You are Thầy Euclid, a wise and playful mathematics mentor guiding a young Star Explorer through a cosmic adventure. Keep language vivid, short and age appropriate."
	gaiaSystem   = "You are Giáo sư Gaia, an expert environmental scientist specializing in closed-loop systems for off-world habitats. Your tone is encouraging, knowledgeable, and slightly formal."
	mentorSystem = "You are AI Mentor, an expert coding tutor on Codia. Provide clear, solvable coding challenges and fair reviews."
	adaSystem    = "You are Code Master Ada, a patient and encouraging coding mentor. Provide hints that guide without giving away answers directly."
)

type ProblemKind string

const (
	TextInput      ProblemKind = "text_input"
	MultipleChoice ProblemKind = "multiple_choice"
)

// Scalar is a string field that models sometimes answer with a bare YAML
// number or boolean.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(strings.TrimSpace(string(b)))
	return nil
}

type Option struct {
	ID   Scalar `json:"id"`
	Text Scalar `json:"text"`
}

// Problem is one math adventure stage. For multiple choice problems
// CorrectAnswer holds the option id.
type Problem struct {
	Text          string      `json:"problemText"`
	Kind          ProblemKind `json:"problemType"`
	AnswerFormat  string      `json:"answerFormatDescription"`
	Options       []Option    `json:"options,omitempty"`
	CorrectAnswer Scalar      `json:"correctAnswer"`
	Difficulty    string      `json:"difficulty,omitempty"`
	Topic         string      `json:"topic,omitempty"`
}

type AnswerEvaluation struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedbackText"`
}

type EcoScenario struct {
	Description string `json:"scenarioDescription"`
	Question    string `json:"challengeQuestion"`
}

type EcoEvaluation struct {
	Evaluation  string   `json:"evaluation"`
	Suggestions []string `json:"suggestions"`
	Score       int      `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
}

// Outcome turns the evaluation into a quest outcome worth tokens.
func (e *EcoEvaluation) Outcome(tokens int) models.EcoDesignOutcome {
	return models.EcoDesignOutcome{Score: e.Score, Feedback: e.Evaluation, TokensAwarded: tokens}
}

type TestCase struct {
	Input  Scalar `json:"input"`
	Output Scalar `json:"output"`
}

type CodeChallenge struct {
	Title       string     `json:"challengeTitle"`
	Description string     `json:"problemDescription"`
	Language    string     `json:"requiredLanguage"`
	InitialCode string     `json:"initialCode,omitempty"`
	TestCases   []TestCase `json:"testCases,omitempty"`
}

type CodeAnalysis struct {
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
	Score       int      `json:"score"`
	Passed      bool     `json:"passed"`
}

// Evaluation is the part of the analysis the progression store consumes.
func (a *CodeAnalysis) Evaluation() models.CodeEvaluation {
	feedback := a.Analysis
	if len(a.Suggestions) > 0 {
		feedback += "\n\n- " + strings.Join(a.Suggestions, "\n- ")
	}
	return models.CodeEvaluation{Score: a.Score, Passed: a.Passed, Feedback: feedback}
}

// StoryIntro opens a math adventure.
func (e *Engine) StoryIntro(ctx context.Context, adv catalog.Adventure) (string, error) {
	return e.text(ctx, "intro.txt", euclidSystem, adv)
}

// GenerateMathProblem asks for the problem of stage (1-based) out of total.
func (e *Engine) GenerateMathProblem(ctx context.Context, adv catalog.Adventure, story string, stage, total int) (*Problem, error) {
	var p Problem
	err := e.structured(ctx, "problem.txt", euclidSystem, "problem", map[string]any{
		"Adventure": adv,
		"Story":     tail(story, 1500),
		"Stage":     stage,
		"Total":     total,
	}, &p)
	if err != nil {
		return nil, err
	}
	if p.Kind == MultipleChoice && p.Options == nil {
		p.Options = []Option{}
	}
	return &p, nil
}

// EvaluateMathAnswer judges an answer. Multiple choice answers are compared
// by option id without a model call.
func (e *Engine) EvaluateMathAnswer(ctx context.Context, p *Problem, answer string) (*AnswerEvaluation, error) {
	answer = strings.TrimSpace(answer)
	if p.Kind == MultipleChoice {
		if strings.EqualFold(answer, string(p.CorrectAnswer)) {
			return &AnswerEvaluation{IsCorrect: true, Feedback: "Correct! The hyperlanes open."}, nil
		}
		return &AnswerEvaluation{Feedback: "Not quite. The starmap flickers, try again."}, nil
	}
	var ev AnswerEvaluation
	err := e.structured(ctx, "evaluate_answer.txt", euclidSystem, "answer_evaluation", map[string]any{
		"Problem": p,
		"Answer":  answer,
	}, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ContinueStory narrates what happens after a correct answer.
func (e *Engine) ContinueStory(ctx context.Context, adv catalog.Adventure, p *Problem, answer, story string, stage, total int) (string, error) {
	return e.text(ctx, "continue_story.txt", euclidSystem, map[string]any{
		"Adventure": adv,
		"Problem":   p,
		"Answer":    answer,
		"Story":     tail(story, 1500),
		"Stage":     stage,
		"Total":     total,
		"Final":     stage >= total,
	})
}

func (e *Engine) MathHint(ctx context.Context, p *Problem, story string) (string, error) {
	return e.text(ctx, "math_hint.txt", euclidSystem, map[string]any{
		"Problem": p,
		"Story":   tail(story, 800),
	})
}

func (e *Engine) GenerateEcoScenario(ctx context.Context, q catalog.Quest) (*EcoScenario, error) {
	var sc EcoScenario
	if err := e.structured(ctx, "eco_scenario.txt", gaiaSystem, "eco_scenario", q, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (e *Engine) EvaluateEcoDesign(ctx context.Context, sc *EcoScenario, solution string) (*EcoEvaluation, error) {
	var ev EcoEvaluation
	err := e.structured(ctx, "eco_evaluate.txt", gaiaSystem, "eco_evaluation", map[string]any{
		"Scenario": sc,
		"Solution": solution,
	}, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (e *Engine) GenerateCodeChallenge(ctx context.Context, q catalog.Quest, language string) (*CodeChallenge, error) {
	var ch CodeChallenge
	err := e.structured(ctx, "code_challenge.txt", mentorSystem, "code_challenge", map[string]any{
		"Quest":    q,
		"Language": language,
	}, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (e *Engine) AnalyzeCode(ctx context.Context, ch *CodeChallenge, code string) (*CodeAnalysis, error) {
	var a CodeAnalysis
	err := e.structured(ctx, "code_analyze.txt", mentorSystem, "code_analysis", map[string]any{
		"Challenge": ch,
		"Code":      code,
	}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (e *Engine) CodeHint(ctx context.Context, ch *CodeChallenge, code string, prev *CodeAnalysis) (string, error) {
	data := map[string]any{"Challenge": ch, "Code": code, "Analysis": ""}
	if prev != nil {
		data["Analysis"] = prev.Analysis
	}
	return e.text(ctx, "code_hint.txt", adaSystem, data)
}

// Congratulate writes a short celebration for an earned achievement.
func (e *Engine) Congratulate(ctx context.Context, name, title, achievement string) (string, error) {
	return e.text(ctx, "congratulate.txt", "", map[string]any{
		"Name":        name,
		"Title":       title,
		"Achievement": achievement,
	})
}

// tail keeps the last n bytes of s, starting on a line boundary when one is
// available.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/stemverse/internal/catalog"
)

type call struct {
	system string
	prompt string
}

// fakeModel replays canned answers in order and records each call.
type fakeModel struct {
	answers []string
	err     error
	calls   []call
}

func (f *fakeModel) GenerateText(_ context.Context, system, prompt string) (string, error) {
	f.calls = append(f.calls, call{system: system, prompt: prompt})
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", nil
	}
	out := f.answers[0]
	f.answers = f.answers[1:]
	return out, nil
}

func newTestEngine(answers ...string) (*Engine, *fakeModel) {
	m := &fakeModel{answers: answers}
	return New(m, nil), m
}

func testAdventure(t *testing.T) catalog.Adventure {
	t.Helper()
	adv, ok := catalog.Default().Adventure("adv1")
	require.True(t, ok)
	return adv
}

func TestGenerateTrimsAndRejectsEmpty(t *testing.T) {
	e, m := newTestEngine("  hello explorer \n", "   ")

	got, err := e.Generate(context.Background(), "hi", "be kind")
	require.NoError(t, err)
	assert.Equal(t, "hello explorer", got)
	assert.Equal(t, "be kind", m.calls[0].system)

	_, err = e.Generate(context.Background(), "hi", "")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := New(&fakeModel{err: boom}, nil)

	_, err := e.StoryIntro(context.Background(), testAdventure(t))
	assert.ErrorIs(t, err, boom)
}

func TestGenerateMathProblem(t *testing.T) {
	answer := "```yaml\n" + `problemText: "The bridge needs 3/4 of 12 planks. How many planks?"
problemType: text_input
answerFormatDescription: a single number
correctAnswer: 9
difficulty: easy
topic: fractions
` + "```"
	e, m := newTestEngine(answer)
	adv := testAdventure(t)

	p, err := e.GenerateMathProblem(context.Background(), adv, "Once upon a star...", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, TextInput, p.Kind)
	assert.Equal(t, Scalar("9"), p.CorrectAnswer)
	assert.Equal(t, "fractions", p.Topic)

	require.Len(t, m.calls, 1)
	assert.Equal(t, euclidSystem, m.calls[0].system)
	assert.Contains(t, m.calls[0].prompt, "stage 2 of 5")
	assert.Contains(t, m.calls[0].prompt, adv.Title)
}

func TestGenerateMathProblemSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"not yaml", "problemText: [unclosed"},
		{"missing answer", "problemText: x\nproblemType: text_input\nanswerFormatDescription: a number\n"},
		{"unknown type", "problemText: x\nproblemType: essay\nanswerFormatDescription: a number\ncorrectAnswer: 1\n"},
		{"choice without options", "problemText: x\nproblemType: multiple_choice\nanswerFormatDescription: pick\ncorrectAnswer: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(tt.answer)
			_, err := e.GenerateMathProblem(context.Background(), testAdventure(t), "", 1, 5)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestEvaluateMathAnswerMultipleChoiceIsLocal(t *testing.T) {
	e, m := newTestEngine()
	p := &Problem{
		Text:          "Which is larger?",
		Kind:          MultipleChoice,
		AnswerFormat:  "pick one",
		Options:       []Option{{ID: "A", Text: "1/2"}, {ID: "B", Text: "2/3"}},
		CorrectAnswer: "B",
	}

	ev, err := e.EvaluateMathAnswer(context.Background(), p, " b ")
	require.NoError(t, err)
	assert.True(t, ev.IsCorrect)

	ev, err = e.EvaluateMathAnswer(context.Background(), p, "A")
	require.NoError(t, err)
	assert.False(t, ev.IsCorrect)
	assert.Empty(t, m.calls)
}

func TestEvaluateMathAnswerTextInput(t *testing.T) {
	e, m := newTestEngine("isCorrect: true\nfeedbackText: Brilliant, the bridge holds!\n")
	p := &Problem{Text: "3/4 of 12?", Kind: TextInput, AnswerFormat: "a number", CorrectAnswer: "9"}

	ev, err := e.EvaluateMathAnswer(context.Background(), p, "9.0")
	require.NoError(t, err)
	assert.True(t, ev.IsCorrect)
	assert.Equal(t, "Brilliant, the bridge holds!", ev.Feedback)
	assert.Contains(t, m.calls[0].prompt, "Star Explorer's answer: 9.0")
}

func TestContinueStoryFinalStage(t *testing.T) {
	e, m := newTestEngine("The galaxy cheers.")
	p := &Problem{Text: "2+2?", Kind: TextInput, CorrectAnswer: "4"}

	_, err := e.ContinueStory(context.Background(), testAdventure(t), p, "4", "story", 5, 5)
	require.NoError(t, err)
	assert.Contains(t, m.calls[0].prompt, "final stage")

	_, err = e.ContinueStory(context.Background(), testAdventure(t), p, "4", "story", 2, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, m.calls[1].prompt, "cliffhanger")
}

func TestMathHintListsOptions(t *testing.T) {
	e, m := newTestEngine("Think about halves.")
	p := &Problem{Text: "Which is larger?", Kind: MultipleChoice, Options: []Option{{ID: "A", Text: "1/2"}, {ID: "B", Text: "2/3"}}}

	hint, err := e.MathHint(context.Background(), p, "")
	require.NoError(t, err)
	assert.Equal(t, "Think about halves.", hint)
	assert.Contains(t, m.calls[0].prompt, "B) 2/3")
}

func TestEcoFlow(t *testing.T) {
	e, m := newTestEngine(
		"scenarioDescription: The river is choked with algae.\nchallengeQuestion: How do you restore it?\n",
		"evaluation: A thoughtful plan.\nscore: 100\nstrengths: [wetlands]\nweaknesses: []\nsuggestions: [monitor nitrates]\n",
	)
	planet, ok := catalog.Default().Planet("eco")
	require.True(t, ok)
	q := planet.Quests[0]

	sc, err := e.GenerateEcoScenario(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "How do you restore it?", sc.Question)
	assert.Equal(t, gaiaSystem, m.calls[0].system)

	ev, err := e.EvaluateEcoDesign(context.Background(), sc, "Plant reed beds.")
	require.NoError(t, err)
	out := ev.Outcome(50)
	assert.Equal(t, 100, out.Score)
	assert.Equal(t, 50, out.TokensAwarded)
	assert.Equal(t, []string{"wetlands"}, ev.Strengths)
}

func TestEvaluateEcoDesignScoreOutOfRange(t *testing.T) {
	e, _ := newTestEngine("evaluation: ok\nscore: 140\nstrengths: []\nweaknesses: []\nsuggestions: []\n")
	_, err := e.EvaluateEcoDesign(context.Background(), &EcoScenario{Description: "d", Question: "q"}, "s")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCodeFlow(t *testing.T) {
	e, m := newTestEngine(
		`challengeTitle: Sum Array
problemDescription: Return the sum of a list of numbers.
requiredLanguage: python
initialCode: "def total(xs):\n    pass"
testCases:
  - input: "[1, 2, 3]"
    output: 6
`,
		"analysis: Works for all cases.\nsuggestions: [add a docstring]\nscore: 92\npassed: true\n",
		"Check the empty list.",
	)
	planet, ok := catalog.Default().Planet("code")
	require.True(t, ok)

	ch, err := e.GenerateCodeChallenge(context.Background(), planet.Quests[0], "python")
	require.NoError(t, err)
	require.Len(t, ch.TestCases, 1)
	assert.Equal(t, Scalar("6"), ch.TestCases[0].Output)

	a, err := e.AnalyzeCode(context.Background(), ch, "def total(xs):\n    return sum(xs)")
	require.NoError(t, err)
	ev := a.Evaluation()
	assert.True(t, ev.Passed)
	assert.Equal(t, 92, ev.Score)
	assert.True(t, strings.HasSuffix(ev.Feedback, "- add a docstring"))
	assert.Contains(t, m.calls[1].prompt, "Test case: input [1, 2, 3] expected output 6")

	hint, err := e.CodeHint(context.Background(), ch, "def total(xs): pass", a)
	require.NoError(t, err)
	assert.Equal(t, "Check the empty list.", hint)
	assert.Equal(t, adaSystem, m.calls[2].system)
	assert.Contains(t, m.calls[2].prompt, "Previous review: Works for all cases.")
}

func TestCongratulateHasNoSystemInstruction(t *testing.T) {
	e, m := newTestEngine("Stellar work!")
	got, err := e.Congratulate(context.Background(), "Nova", "Math Wizard", "Math Whiz")
	require.NoError(t, err)
	assert.Equal(t, "Stellar work!", got)
	assert.Empty(t, m.calls[0].system)
	assert.Contains(t, m.calls[0].prompt, "now known as Math Wizard")
}

func TestCleanYAML(t *testing.T) {
	for _, in := range []string{"```yaml\na: 1\n```", "```\na: 1\n```", "a: 1", "```json\na: 1\n```"} {
		assert.Equal(t, "a: 1", cleanYAML(in), in)
	}
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short", 10))
	assert.Equal(t, "line three", tail("line one\nline two\nline three", 14))
}

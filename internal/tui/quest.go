package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/engine"
	"github.com/tatianab/stemverse/internal/models"
)

const codeLanguage = "python"

type questRun struct {
	planet    models.PlanetID
	quest     catalog.Quest
	scenario  *engine.EcoScenario
	challenge *engine.CodeChallenge
	problem   *engine.Problem
	analysis  *engine.CodeAnalysis
	hint      string
	feedback  string
	done      bool
}

type scenarioMsg struct {
	seq      int
	scenario *engine.EcoScenario
	err      error
}

type ecoEvalMsg struct {
	seq  int
	eval *engine.EcoEvaluation
	err  error
}

type challengeMsg struct {
	seq       int
	challenge *engine.CodeChallenge
	err       error
}

type analysisMsg struct {
	seq      int
	analysis *engine.CodeAnalysis
	err      error
}

type questProblemMsg struct {
	seq     int
	problem *engine.Problem
	err     error
}

type questAnswerMsg struct {
	seq  int
	eval *engine.AnswerEvaluation
	err  error
}

type codeHintMsg struct {
	seq  int
	text string
	err  error
}

func (m model) startQuest(q catalog.Quest) (model, tea.Cmd) {
	m.quest = questRun{planet: m.planet, quest: q}
	m.screen = screenQuest
	m.status = ""
	m.editor.Reset()
	m.textInput.Reset()
	return m.loadQuest()
}

// loadQuest asks the engine for the quest's content.
func (m model) loadQuest() (model, tea.Cmd) {
	m.loading = true
	m.seq++
	seq := m.seq
	eng := m.deps.Engine
	q := m.quest.quest
	m.refreshViewport()

	switch q.Kind {
	case catalog.QuestEcoDesign:
		return m, func() tea.Msg {
			sc, err := eng.GenerateEcoScenario(context.Background(), q)
			return scenarioMsg{seq: seq, scenario: sc, err: err}
		}
	case catalog.QuestCodeSubmission:
		return m, func() tea.Msg {
			ch, err := eng.GenerateCodeChallenge(context.Background(), q, codeLanguage)
			return challengeMsg{seq: seq, challenge: ch, err: err}
		}
	default:
		adv := catalog.Adventure{ID: q.ID, Title: q.Title, ThemePrompt: q.Description}
		return m, func() tea.Msg {
			p, err := eng.GenerateMathProblem(context.Background(), adv, q.Description, 1, 1)
			return questProblemMsg{seq: seq, problem: p, err: err}
		}
	}
}

func (m model) ready() bool {
	return m.quest.scenario != nil || m.quest.challenge != nil || m.quest.problem != nil
}

func (m model) updateQuest(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case scenarioMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("Giáo sư Gaia could not prepare a scenario", msg.err)
		}
		m.quest.scenario = msg.scenario
		m.editor.Focus()
		m.refreshViewport()
		return m, nil

	case challengeMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("AI Mentor could not prepare a challenge", msg.err)
		}
		m.quest.challenge = msg.challenge
		m.editor.SetValue(msg.challenge.InitialCode)
		m.editor.Focus()
		m.refreshViewport()
		return m, nil

	case questProblemMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("Thầy Euclid could not conjure a problem", msg.err)
		}
		m.quest.problem = msg.problem
		m.textInput.Focus()
		m.refreshViewport()
		return m, nil

	case ecoEvalMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("Giáo sư Gaia could not review your design", msg.err)
		}
		ev := msg.eval
		tokens := m.cat.Tokens.EcoQuestCompletion
		repeat := m.questCompleted()
		m.deps.Store.SubmitQuestOutcome(m.quest.planet, m.quest.quest.ID, ev.Outcome(tokens))
		m.quest.feedback = ecoFeedback(ev) + m.completion(tokens, repeat)
		m.quest.done = true
		m.editor.Blur()
		m.refreshViewport()
		return m, nil

	case analysisMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("AI Mentor could not analyze your code", msg.err)
		}
		m.quest.analysis = msg.analysis
		tokens := m.cat.Tokens.CodeQuestCompletion
		ev := msg.analysis.Evaluation()
		repeat := m.questCompleted()
		passed := m.deps.Store.SubmitQuestOutcome(m.quest.planet, m.quest.quest.ID, models.CodeSubmissionOutcome{
			Evaluation:    ev,
			TokensAwarded: tokens,
		})
		m.quest.feedback = fmt.Sprintf("**Score: %d/100**\n\n%s", ev.Score, ev.Feedback)
		if passed {
			m.quest.feedback += m.completion(tokens, repeat)
			m.quest.done = true
			m.editor.Blur()
		} else {
			m.quest.feedback += "\n\n_Not passing yet. Revise your code and submit again._"
		}
		m.refreshViewport()
		return m, nil

	case questAnswerMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m.questFailed("Thầy Euclid could not check your answer", msg.err)
		}
		m.quest.feedback = msg.eval.Feedback
		if msg.eval.IsCorrect {
			// Math quests credit again on every completion.
			repeat := m.questCompleted() && m.quest.planet != models.PlanetMath
			m.deps.Store.SubmitQuestOutcome(m.quest.planet, m.quest.quest.ID, models.GenericOutcome{})
			m.quest.feedback = "✅ " + m.quest.feedback + m.completion(m.cat.QuestReward(m.quest.planet), repeat)
			m.quest.done = true
			m.textInput.Blur()
		} else {
			m.quest.feedback = "❌ " + m.quest.feedback
		}
		m.refreshViewport()
		return m, nil

	case codeHintMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = "A cosmic glitch disrupted the hint generator."
			return m, nil
		}
		m.quest.hint = msg.text
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.editor.Blur()
			m.textInput.Blur()
			m.screen = screenPlanet
			m.loading = false
			m.seq++
			m.status = ""
			return m, nil
		case m.quest.done || m.loading:
			return m, nil
		case key.Matches(msg, m.keys.Retry):
			if !m.ready() {
				return m.loadQuest()
			}
			return m, nil
		case key.Matches(msg, m.keys.Hint):
			return m.requestCodeHint()
		case key.Matches(msg, m.keys.Submit):
			return m.submitQuest()
		case key.Matches(msg, m.keys.Enter) && m.quest.problem != nil:
			return m.submitQuest()
		}
	}

	var cmd tea.Cmd
	if m.quest.problem != nil {
		m.textInput, cmd = m.textInput.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m model) questCompleted() bool {
	pp := m.deps.Store.State().Progress[m.quest.planet]
	return pp != nil && slices.Contains(pp.CompletedQuestIDs, m.quest.quest.ID)
}

func (m model) completion(tokens int, repeat bool) string {
	if repeat {
		return "\n\n**Quest already complete.** Great practice!"
	}
	return m.printer.Sprintf("\n\n**Quest complete! +%d tokens**", tokens)
}

func (m model) questFailed(what string, err error) (model, tea.Cmd) {
	m.deps.Logger.Warn("quest step failed", "quest", m.quest.quest.ID, "error", err)
	if m.ready() {
		m.status = what + ". Please try again."
	} else {
		m.status = what + ". Press ctrl+r to try again."
	}
	return m, nil
}

func (m model) submitQuest() (model, tea.Cmd) {
	eng := m.deps.Engine
	m.seq++
	seq := m.seq
	q := m.quest

	switch {
	case q.scenario != nil:
		solution := strings.TrimSpace(m.editor.Value())
		if solution == "" {
			return m, nil
		}
		m.loading = true
		return m, func() tea.Msg {
			ev, err := eng.EvaluateEcoDesign(context.Background(), q.scenario, solution)
			return ecoEvalMsg{seq: seq, eval: ev, err: err}
		}
	case q.challenge != nil:
		code := m.editor.Value()
		if strings.TrimSpace(code) == "" {
			return m, nil
		}
		m.loading = true
		return m, func() tea.Msg {
			a, err := eng.AnalyzeCode(context.Background(), q.challenge, code)
			return analysisMsg{seq: seq, analysis: a, err: err}
		}
	case q.problem != nil:
		answer := strings.TrimSpace(m.textInput.Value())
		if answer == "" {
			return m, nil
		}
		m.loading = true
		return m, func() tea.Msg {
			ev, err := eng.EvaluateMathAnswer(context.Background(), q.problem, answer)
			return questAnswerMsg{seq: seq, eval: ev, err: err}
		}
	}
	return m, nil
}

func (m model) requestCodeHint() (model, tea.Cmd) {
	if m.quest.challenge == nil {
		return m, nil
	}
	cost := m.cat.Tokens.HintCost
	if !m.deps.Store.SpendTokens(cost) {
		m.status = m.printer.Sprintf("A hint costs %d tokens. Keep exploring to earn more!", cost)
		return m, nil
	}
	m.loading = true
	m.seq++
	seq := m.seq
	eng := m.deps.Engine
	ch, code, prev := m.quest.challenge, m.editor.Value(), m.quest.analysis
	return m, func() tea.Msg {
		text, err := eng.CodeHint(context.Background(), ch, code, prev)
		return codeHintMsg{seq: seq, text: text, err: err}
	}
}

func ecoFeedback(ev *engine.EcoEvaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Score: %d/100**\n\n%s\n", ev.Score, ev.Evaluation)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n### " + title + "\n")
		for _, it := range items {
			b.WriteString("- " + it + "\n")
		}
	}
	section("Strengths", ev.Strengths)
	section("To improve", ev.Weaknesses)
	section("Suggestions", ev.Suggestions)
	return b.String()
}

// questMarkdown is the brief and feedback shown above the editor.
func (m model) questMarkdown() string {
	q := m.quest
	var b strings.Builder
	b.WriteString("## " + q.quest.Title + "\n\n")
	switch {
	case q.scenario != nil:
		b.WriteString(q.scenario.Description + "\n\n**Challenge:** " + q.scenario.Question + "\n")
	case q.challenge != nil:
		ch := q.challenge
		fmt.Fprintf(&b, "### %s\n\n%s\n\n_Language: %s_\n", ch.Title, ch.Description, ch.Language)
		for _, tc := range ch.TestCases {
			fmt.Fprintf(&b, "\n- `%s` → `%s`", tc.Input, tc.Output)
		}
	case q.problem != nil:
		b.WriteString(problemMarkdown(q.problem) + "\n")
	default:
		b.WriteString("_" + q.quest.Description + "_\n")
	}
	if q.hint != "" {
		b.WriteString("\n\n💡 *" + q.hint + "*\n")
	}
	if q.feedback != "" {
		b.WriteString("\n\n---\n\n" + q.feedback + "\n")
	}
	return b.String()
}

func (m model) viewQuest() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString(m.viewport.View() + "\n\n")
	switch {
	case m.quest.done:
		b.WriteString(m.helpLine("esc: back to the planet"))
	case m.loading:
		b.WriteString(m.st.muted.Render("Working on it...") + "\n\n")
		b.WriteString(m.helpLine("esc: leave"))
	case m.quest.problem != nil:
		b.WriteString(m.textInput.View() + "\n\n")
		b.WriteString(m.helpLine("enter: answer", "esc: leave"))
	case m.ready():
		b.WriteString(m.editor.View() + "\n\n")
		help := []string{"ctrl+s: submit", "esc: leave"}
		if m.quest.challenge != nil {
			help = append(help, m.printer.Sprintf("ctrl+h: hint (%d tokens)", m.cat.Tokens.HintCost))
		}
		b.WriteString(m.helpLine(help...))
	default:
		b.WriteString(m.helpLine("ctrl+r: retry", "esc: leave"))
	}
	return b.String()
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/engine"
	"github.com/tatianab/stemverse/internal/models"
)

type adventureRun struct {
	adventure catalog.Adventure
	problem   *engine.Problem
	answer    string
	stage     int
	total     int
	done      bool
	// transcript of a finished run; the store clears its log on completion.
	transcript string
}

type introMsg struct {
	seq  int
	text string
	err  error
}

type problemMsg struct {
	seq     int
	problem *engine.Problem
	err     error
}

type answerMsg struct {
	seq  int
	eval *engine.AnswerEvaluation
	err  error
}

type storyMsg struct {
	seq  int
	text string
	err  error
}

type hintMsg struct {
	seq  int
	text string
	err  error
}

func stageID(n int) string {
	return fmt.Sprintf("stage_%d", n)
}

func (m model) startAdventure(adv catalog.Adventure) (model, tea.Cmd) {
	m.deps.Store.StartMathAdventure(adv.ID, models.ModeTextOnly, adv.EstimatedStages)
	m.appendLog(models.LogAdventureStart, "Adventure begins: "+adv.Title, nil)
	m.adv = adventureRun{adventure: adv, stage: 1, total: adv.EstimatedStages}
	m.screen = screenAdventure
	m.status = ""
	m.textInput.Reset()
	m.textInput.Focus()
	m.loading = true
	m.seq++
	seq := m.seq
	eng := m.deps.Engine
	m.refreshViewport()
	return m, func() tea.Msg {
		text, err := eng.StoryIntro(context.Background(), adv)
		return introMsg{seq: seq, text: text, err: err}
	}
}

func (m model) resumeAdventure() (model, tea.Cmd) {
	run := m.activeRun()
	if run == nil {
		return m, nil
	}
	adv, ok := m.cat.Adventure(run.SelectedAdventureID)
	if !ok {
		adv = catalog.Adventure{ID: run.SelectedAdventureID, Title: run.SelectedAdventureID}
	}
	m.adv = adventureRun{
		adventure: adv,
		stage:     len(run.CompletedStages) + 1,
		total:     run.CurrentAdventureTotalStages,
	}
	m.screen = screenAdventure
	m.status = ""
	m.textInput.Reset()
	m.textInput.Focus()
	m.refreshViewport()
	if m.adv.stage > m.adv.total {
		return m.finishAdventure("")
	}
	return m.requestProblem()
}

func (m model) requestProblem() (model, tea.Cmd) {
	m.loading = true
	m.adv.problem = nil
	m.seq++
	seq := m.seq
	eng := m.deps.Engine
	adv, story, stage, total := m.adv.adventure, m.storyContext(), m.adv.stage, m.adv.total
	return m, func() tea.Msg {
		p, err := eng.GenerateMathProblem(context.Background(), adv, story, stage, total)
		return problemMsg{seq: seq, problem: p, err: err}
	}
}

func (m model) updateAdventure(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case introMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.deps.Logger.Warn("adventure intro failed", "error", msg.err)
			m.appendLog(models.LogSystemMessage, "Thầy Euclid seems lost in thought...", nil)
		} else {
			m.appendLog(models.LogNarration, msg.text, nil)
		}
		return m.requestProblem()

	case problemMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.deps.Logger.Warn("problem generation failed", "error", msg.err)
			m.status = "Thầy Euclid's astrolabe is malfunctioning. Press ctrl+r to try again."
			return m, nil
		}
		m.adv.problem = msg.problem
		m.appendLog(models.LogProblem, problemMarkdown(msg.problem), nil)
		return m, nil

	case answerMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			m.deps.Logger.Warn("answer evaluation failed", "error", msg.err)
			m.status = "A disturbance in the mathematical ether. Submit your answer again."
			return m, nil
		}
		correct := msg.eval.IsCorrect
		m.appendLog(models.LogFeedback, msg.eval.Feedback, &correct)
		if !correct {
			m.loading = false
			return m, nil
		}
		m.deps.Store.CompleteAdventureStage(stageID(m.adv.stage), m.cat.Tokens.QuestStage)
		m.seq++
		seq := m.seq
		eng := m.deps.Engine
		adv, p, answer, story, stage, total := m.adv.adventure, m.adv.problem, m.adv.answer, m.storyContext(), m.adv.stage, m.adv.total
		return m, func() tea.Msg {
			text, err := eng.ContinueStory(context.Background(), adv, p, answer, story, stage, total)
			return storyMsg{seq: seq, text: text, err: err}
		}

	case storyMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		text := msg.text
		if msg.err != nil {
			m.deps.Logger.Warn("story continuation failed", "error", msg.err)
			text = "Thầy Euclid ponders the next step in your grand journey..."
		}
		if m.adv.stage >= m.adv.total {
			return m.finishAdventure(text)
		}
		m.appendLog(models.LogNarration, text, nil)
		m.adv.stage++
		return m.requestProblem()

	case hintMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.status = "My connection to the Cosmic Muses is fuzzy. No hint available."
			return m, nil
		}
		m.appendLog(models.LogHint, msg.text, nil)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.textInput.Blur()
			m.screen = screenPlanet
			m.loading = false
			m.seq++
			m.status = ""
			return m, nil
		case m.adv.done:
			return m, nil
		case key.Matches(msg, m.keys.Retry):
			if !m.loading && m.adv.problem == nil {
				return m.requestProblem()
			}
			return m, nil
		case key.Matches(msg, m.keys.Hint):
			return m.requestMathHint()
		case key.Matches(msg, m.keys.Enter):
			return m.submitAnswer()
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) submitAnswer() (model, tea.Cmd) {
	answer := strings.TrimSpace(m.textInput.Value())
	if m.loading || m.adv.problem == nil || answer == "" {
		return m, nil
	}
	m.textInput.Reset()
	m.adv.answer = answer
	m.appendLog(models.LogUserAnswer, answer, nil)
	m.loading = true
	m.status = ""
	m.seq++
	seq := m.seq
	eng := m.deps.Engine
	p := m.adv.problem
	return m, func() tea.Msg {
		ev, err := eng.EvaluateMathAnswer(context.Background(), p, answer)
		return answerMsg{seq: seq, eval: ev, err: err}
	}
}

func (m model) requestMathHint() (model, tea.Cmd) {
	if m.loading || m.adv.problem == nil {
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
	p, story := m.adv.problem, m.storyContext()
	return m, func() tea.Msg {
		text, err := eng.MathHint(context.Background(), p, story)
		return hintMsg{seq: seq, text: text, err: err}
	}
}

// finishAdventure records the closing narration and ends the run
// successfully. The transcript is kept locally for display.
func (m model) finishAdventure(closing string) (model, tea.Cmd) {
	if closing != "" {
		m.appendLog(models.LogNarration, closing, nil)
	}
	m.appendLog(models.LogAdventureEnd, fmt.Sprintf("Adventure complete! +%d bonus tokens", m.cat.Tokens.AdventureCompletion), nil)
	m.adv.transcript = m.transcript()
	m.deps.Store.EndMathAdventure(true)
	m.adv.done = true
	m.adv.problem = nil
	m.loading = false
	m.textInput.Blur()
	m.refreshViewport()
	return m, nil
}

func (m *model) appendLog(t models.LogEntryType, content string, correct *bool) {
	m.deps.Store.AppendAdventureLog(models.AdventureLogEntry{Type: t, Content: content, IsCorrect: correct})
	m.refreshViewport()
}

func (m model) storyLog() []models.AdventureLogEntry {
	run := m.activeRun()
	if run == nil {
		return nil
	}
	return run.StoryLog
}

// storyContext is the narration so far, used as model context.
func (m model) storyContext() string {
	var b strings.Builder
	for _, e := range m.storyLog() {
		if e.Type == models.LogNarration || e.Type == models.LogProblem {
			b.WriteString(e.Content + "\n")
		}
	}
	return b.String()
}

// transcript renders the story log as markdown.
func (m model) transcript() string {
	var b strings.Builder
	for _, e := range m.storyLog() {
		switch e.Type {
		case models.LogNarration:
			b.WriteString(e.Content + "\n\n")
		case models.LogProblem:
			b.WriteString("**Problem:** " + e.Content + "\n\n")
		case models.LogUserAnswer:
			b.WriteString("> " + e.Content + "\n\n")
		case models.LogFeedback:
			mark := "❌"
			if e.IsCorrect != nil && *e.IsCorrect {
				mark = "✅"
			}
			b.WriteString(mark + " " + e.Content + "\n\n")
		case models.LogHint:
			b.WriteString("💡 *" + e.Content + "*\n\n")
		default:
			b.WriteString("*" + e.Content + "*\n\n")
		}
	}
	return b.String()
}

func problemMarkdown(p *engine.Problem) string {
	var b strings.Builder
	b.WriteString(p.Text)
	for _, o := range p.Options {
		fmt.Fprintf(&b, "\n- **%s**) %s", o.ID, o.Text)
	}
	if p.AnswerFormat != "" {
		b.WriteString("\n\n_Answer format: " + p.AnswerFormat + "_")
	}
	return b.String()
}

func (m *model) refreshViewport() {
	var md string
	switch {
	case m.screen == screenAdventure && m.adv.done:
		md = m.adv.transcript
	case m.screen == screenAdventure:
		md = m.transcript()
	case m.screen == screenQuest:
		md = m.questMarkdown()
	default:
		return
	}
	m.viewport.SetContent(m.markdown(md, m.viewport.Width-2))
	m.viewport.GotoBottom()
}

func (m model) viewAdventure() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString(m.st.title.Render(m.adv.adventure.Title))
	if m.adv.total > 0 {
		done := min(m.adv.stage-1, m.adv.total)
		if m.adv.done {
			done = m.adv.total
		}
		fmt.Fprintf(&b, "  %s stage %d/%d", m.bar.ViewAs(float64(done)/float64(m.adv.total)), min(m.adv.stage, m.adv.total), m.adv.total)
	}
	b.WriteString("\n\n" + m.viewport.View() + "\n\n")

	switch {
	case m.adv.done:
		b.WriteString(m.st.good.Render("You completed the adventure!") + "\n\n")
		b.WriteString(m.helpLine("esc: back to the planet"))
	case m.loading:
		b.WriteString(m.st.muted.Render("Thầy Euclid is thinking...") + "\n\n")
		b.WriteString(m.helpLine("esc: leave"))
	default:
		b.WriteString(m.textInput.View() + "\n\n")
		b.WriteString(m.helpLine("enter: answer", m.printer.Sprintf("ctrl+h: hint (%d tokens)", m.cat.Tokens.HintCost), "ctrl+r: retry", "esc: leave"))
	}
	return b.String()
}

// Package tui is the terminal front end of the academy.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tatianab/stemverse/internal/achievements"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/engine"
	"github.com/tatianab/stemverse/internal/models"
	"github.com/tatianab/stemverse/internal/notify"
	"github.com/tatianab/stemverse/internal/progression"
	"github.com/tatianab/stemverse/internal/skilltree"
)

// Deps are the collaborators the front end drives.
type Deps struct {
	Store         *progression.Store
	Sequencer     *notify.Sequencer
	Evaluator     *achievements.Evaluator
	Ledger        *achievements.Ledger
	Skills        *skilltree.Calculator
	Engine        *engine.Engine
	ToastDuration time.Duration
	Language      string
	Logger        *slog.Logger
}

type screen int

const (
	screenHub screen = iota
	screenPlanet
	screenAdventure
	screenQuest
)

type overlay int

const (
	overlayNone overlay = iota
	overlayAchievements
	overlaySkills
	overlayThemes
	overlayJourney
)

type model struct {
	deps    Deps
	cat     *catalog.Catalog
	keys    keyMap
	st      *styles
	printer *message.Printer

	screen  screen
	overlay overlay
	cursor  int
	planet  models.PlanetID

	adv   adventureRun
	quest questRun

	skillTab    int
	skillCursor int
	themeCursor int

	textInput textinput.Model
	editor    textarea.Model
	viewport  viewport.Model
	bar       progress.Model

	loading bool
	seq     int
	status  string

	toastID   string
	toastText string

	width  int
	height int
}

func newModel(d Deps) model {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.ToastDuration <= 0 {
		d.ToastDuration = 5 * time.Second
	}
	cat := d.Store.Catalog()
	if d.Evaluator == nil {
		d.Evaluator = achievements.NewEvaluator(cat)
	}
	if d.Skills == nil {
		d.Skills = skilltree.New(cat)
	}

	ti := textinput.New()
	ti.Placeholder = "Your answer..."
	ti.CharLimit = 156
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "Write your solution here..."
	ta.SetWidth(72)
	ta.SetHeight(10)

	tag := language.English
	if d.Language != "" {
		if t, err := language.Parse(d.Language); err == nil {
			tag = t
		}
	}

	m := model{
		deps:      d,
		cat:       cat,
		keys:      defaultKeyMap(),
		printer:   message.NewPrinter(tag),
		textInput: ti,
		editor:    ta,
		viewport:  viewport.New(72, 20),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage()),
		width:     100,
		height:    30,
	}
	m.st = newStyles(m.themeInfo(d.Store.State().CurrentTheme))

	// The store calls the applier after a theme change commits.
	st := m.st
	d.Store.SetThemeApplier(func(t models.Theme) {
		*st = *newStyles(m.themeInfo(t))
	})
	return m
}

func (m model) themeInfo(t models.Theme) catalog.ThemeInfo {
	if info, ok := m.cat.Theme(t); ok {
		return info
	}
	info, _ := m.cat.Theme(m.cat.Defaults().Theme)
	return info
}

type toastCheckMsg struct{}

type toastExpiredMsg struct {
	id string
}

type congratsMsg struct {
	id   string
	text string
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return toastCheckMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	return m.syncToast(cmd)
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.72)
		m.viewport.Height = max(msg.Height-10, 5)
		m.editor.SetWidth(max(msg.Width-6, 20))
		m.refreshViewport()
		return m, nil

	case toastCheckMsg:
		return m, nil

	case toastExpiredMsg:
		m.deps.Sequencer.DismissID(msg.id)
		return m, nil

	case congratsMsg:
		if msg.id == m.toastID {
			m.toastText = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.toastID != "" && msg.String() == "x" && !m.typing() {
			m.deps.Sequencer.Dismiss()
			return m, nil
		}
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}
	}

	switch m.screen {
	case screenPlanet:
		return m.updatePlanet(msg)
	case screenAdventure:
		return m.updateAdventure(msg)
	case screenQuest:
		return m.updateQuest(msg)
	default:
		return m.updateHub(msg)
	}
}

// typing reports whether key presses belong to a text field.
func (m model) typing() bool {
	return m.overlay == overlayNone && (m.textInput.Focused() || m.editor.Focused())
}

// syncToast follows the sequencer: a newly shown achievement schedules
// its auto-dismiss and asks for a congratulation line.
func (m model) syncToast(cmd tea.Cmd) (model, tea.Cmd) {
	ach, ok := m.deps.Sequencer.Current()
	if !ok {
		m.toastID = ""
		m.toastText = ""
		return m, cmd
	}
	if ach.ID == m.toastID {
		return m, cmd
	}
	m.toastID = ach.ID
	m.toastText = ""
	id := ach.ID
	cmds := []tea.Cmd{cmd, tea.Tick(m.deps.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})}
	if m.deps.Engine != nil {
		eng := m.deps.Engine
		name := m.deps.Store.State().UserName
		title := m.deps.Evaluator.PlayerTitle(m.deps.Ledger.IDs())
		achName := ach.Name
		cmds = append(cmds, func() tea.Msg {
			text, err := eng.Congratulate(context.Background(), name, title, achName)
			if err != nil {
				return nil
			}
			return congratsMsg{id: id, text: text}
		})
	}
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	var s string
	switch m.screen {
	case screenPlanet:
		s = m.viewPlanet()
	case screenAdventure:
		s = m.viewAdventure()
	case screenQuest:
		s = m.viewQuest()
	default:
		s = m.viewHub()
	}
	if m.overlay != overlayNone {
		s = m.viewOverlay()
	}
	if m.status != "" {
		s += "\n\n" + m.st.statusBar.Render(m.status)
	}
	if toast := m.viewToast(); toast != "" {
		s += "\n\n" + toast
	}
	return "\n" + s + "\n"
}

func (m model) viewToast() string {
	ach, ok := m.deps.Sequencer.Current()
	if !ok {
		return ""
	}
	body := fmt.Sprintf("%s Achievement unlocked: %s\n%s", ach.Icon, m.st.selected.Render(ach.Name), ach.Description)
	if ach.Rewards.Tokens > 0 {
		body += "\n" + m.st.good.Render(m.printer.Sprintf("+%d tokens", ach.Rewards.Tokens))
	}
	if ach.Rewards.Title != "" {
		body += "\nNew title: " + ach.Rewards.Title
	}
	if m.toastText != "" {
		body += "\n\n" + m.toastText
	}
	body += "\n" + m.st.help.Render("x to dismiss")
	return m.st.toast.Width(min(m.width-4, 60)).Render(body)
}

// markdown renders md with glamour, falling back to the raw text.
func (m model) markdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.st.glamour),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m model) header() string {
	s := m.deps.Store.State()
	title := m.deps.Evaluator.PlayerTitle(m.deps.Ledger.IDs())
	line := fmt.Sprintf("%s · %s · %s",
		m.st.title.Render("STEMverse Academy"),
		m.st.text.Render(s.UserName+", "+title),
		m.st.selected.Render(m.printer.Sprintf("%d tokens", s.TotalTokens)),
	)
	if s.MasterBadgeEarned {
		line += " · 🏅 Master of the STEMverse"
	}
	return line
}

func (m model) helpLine(parts ...string) string {
	return m.st.help.Render(strings.Join(parts, " · "))
}

// Run starts the program and blocks until the player quits.
func Run(d Deps) error {
	p := tea.NewProgram(newModel(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

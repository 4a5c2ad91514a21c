package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/stemverse/internal/catalog"
)

// styles is rebuilt whenever the player switches theme.
type styles struct {
	theme     catalog.ThemeInfo
	glamour   string
	title     lipgloss.Style
	text      lipgloss.Style
	muted     lipgloss.Style
	selected  lipgloss.Style
	locked    lipgloss.Style
	user      lipgloss.Style
	help      lipgloss.Style
	panel     lipgloss.Style
	toast     lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	statusBar lipgloss.Style
}

func newStyles(t catalog.ThemeInfo) *styles {
	accent := lipgloss.Color(t.Accent)
	secondary := lipgloss.Color(t.Secondary)
	text := lipgloss.Color(t.Text)

	glamourStyle := "dark"
	if t.ID == "light" {
		glamourStyle = "light"
	}

	return &styles{
		theme:   t,
		glamour: glamourStyle,
		title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Underline(true),
		text: lipgloss.NewStyle().
			Foreground(text),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		selected: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		locked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F5F5F")).
			Strikethrough(true),
		user: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(secondary).
			Bold(true).
			PaddingLeft(1),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(secondary).
			PaddingLeft(2).
			Foreground(text),
		toast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			Foreground(text),
		good: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD787")),
		bad: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")),
		statusBar: lipgloss.NewStyle().
			Foreground(secondary).
			Italic(true),
	}
}

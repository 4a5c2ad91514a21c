package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/stemverse/internal/models"
)

func (m model) updateHub(msg tea.Msg) (model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	planets := m.cat.Planets
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.cursor < len(planets)-1 {
			m.cursor++
		}
	case key.Matches(k, m.keys.Enter):
		if m.cursor < len(planets) {
			return m.enterPlanet(planets[m.cursor].ID)
		}
	case key.Matches(k, m.keys.Achievements):
		m.overlay = overlayAchievements
	case key.Matches(k, m.keys.Skills):
		m.overlay = overlaySkills
	case key.Matches(k, m.keys.Themes):
		m.overlay = overlayThemes
	case key.Matches(k, m.keys.Journey):
		m.overlay = overlayJourney
	}
	return m, nil
}

// enterPlanet opens a planet, bouncing back to the hub when it is locked.
func (m model) enterPlanet(p models.PlanetID) (model, tea.Cmd) {
	if !m.deps.Store.State().IsUnlocked(p) {
		m.deps.Store.SetActivePlanet("")
		m.screen = screenHub
		m.planet = ""
		m.status = "That planet is still locked. Complete more quests to reach it."
		return m, nil
	}
	m.deps.Store.StartPlanet(p)
	m.screen = screenPlanet
	m.planet = p
	m.cursor = 0
	m.status = ""
	return m, nil
}

func (m model) viewHub() string {
	s := m.deps.Store.State()
	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString(m.st.title.Render("PLANETS") + "\n\n")

	for i, p := range m.cat.Planets {
		pct := m.deps.Store.PlanetProgress(p.ID)
		name := fmt.Sprintf("%s (%s)", p.Name, p.NPC)
		line := "  " + name
		switch {
		case !s.IsUnlocked(p.ID):
			line = "  🔒 " + m.st.locked.Render(name)
		case i == m.cursor:
			line = "> " + m.st.selected.Render(name)
		}
		fmt.Fprintf(&b, "%-48s %s %3.0f%%\n", line, m.bar.ViewAs(pct/100), pct)
	}

	fmt.Fprintf(&b, "\n%s\n", m.st.muted.Render(m.printer.Sprintf(
		"Streak: %d days · Time in the academy: %d min · Perfect scores: %d",
		s.Stats.StreakDays, s.Stats.TimeSpentMinutes, s.Stats.PerfectScores)))
	b.WriteString("\n" + m.helpLine("enter: visit", "a: achievements", "s: skills", "t: themes", "g: journey", "q: quit"))
	return b.String()
}

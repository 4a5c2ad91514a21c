package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

// planetEntry is a selectable row on a planet screen: a quest or, on the
// math planet, an adventure.
type planetEntry struct {
	quest     *catalog.Quest
	adventure *catalog.Adventure
}

func (m model) planetEntries() []planetEntry {
	p, ok := m.cat.Planet(m.planet)
	if !ok {
		return nil
	}
	var out []planetEntry
	for i := range p.Quests {
		out = append(out, planetEntry{quest: &p.Quests[i]})
	}
	if m.planet == models.PlanetMath {
		for i := range m.cat.Adventures {
			out = append(out, planetEntry{adventure: &m.cat.Adventures[i]})
		}
	}
	return out
}

func (m model) updatePlanet(msg tea.Msg) (model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	entries := m.planetEntries()
	switch {
	case key.Matches(k, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(k, m.keys.Back):
		m.deps.Store.SetActivePlanet("")
		m.screen = screenHub
		m.planet = ""
		m.cursor = 0
		m.status = ""
	case key.Matches(k, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case key.Matches(k, m.keys.Resume):
		if m.planet == models.PlanetMath && m.activeRun() != nil {
			return m.resumeAdventure()
		}
	case key.Matches(k, m.keys.Enter):
		if m.cursor >= len(entries) {
			return m, nil
		}
		e := entries[m.cursor]
		if e.adventure != nil {
			return m.startAdventure(*e.adventure)
		}
		return m.startQuest(*e.quest)
	case key.Matches(k, m.keys.Achievements):
		m.overlay = overlayAchievements
	case key.Matches(k, m.keys.Skills):
		m.overlay = overlaySkills
	}
	return m, nil
}

func (m model) activeRun() *models.MathAdventureProgress {
	pp := m.deps.Store.State().Progress[models.PlanetMath]
	if pp == nil || pp.MathAdventure == nil || !pp.MathAdventure.Active() {
		return nil
	}
	return pp.MathAdventure
}

func (m model) viewPlanet() string {
	p, ok := m.cat.Planet(m.planet)
	if !ok {
		return m.viewHub()
	}
	s := m.deps.Store.State()
	pp := s.Progress[m.planet]

	var b strings.Builder
	b.WriteString(m.header() + "\n\n")
	b.WriteString(m.st.title.Render(strings.ToUpper(p.Name)) + "\n")
	b.WriteString(m.st.muted.Render(p.Description) + "\n\n")
	pct := m.deps.Store.PlanetProgress(m.planet)
	fmt.Fprintf(&b, "%s %3.0f%% (%d/%d)\n\n", m.bar.ViewAs(pct/100), pct, s.CompletionCount(m.planet), p.CompletionTarget)

	for i, e := range m.planetEntries() {
		var name, mark string
		switch {
		case e.quest != nil:
			name = "Quest: " + e.quest.Title
			if pp != nil && slices.Contains(pp.CompletedQuestIDs, e.quest.ID) {
				mark = m.st.good.Render(" ✓")
			}
		case e.adventure != nil:
			name = fmt.Sprintf("Adventure: %s (%d stages)", e.adventure.Title, e.adventure.EstimatedStages)
			if pp != nil && pp.MathAdventure != nil && slices.Contains(pp.MathAdventure.CompletedAdventures, e.adventure.ID) {
				mark = m.st.good.Render(" ✓")
			}
		}
		if i == m.cursor {
			b.WriteString("> " + m.st.selected.Render(name) + mark + "\n")
		} else {
			b.WriteString("  " + name + mark + "\n")
		}
	}

	help := []string{"enter: start", "esc: hub", "a: achievements", "s: skills"}
	if run := m.activeRun(); run != nil && m.planet == models.PlanetMath {
		b.WriteString("\n" + m.st.selected.Render(fmt.Sprintf("Adventure in progress: stage %d of %d",
			len(run.CompletedStages)+1, run.CurrentAdventureTotalStages)) + "\n")
		help = append(help, "r: resume")
	}
	b.WriteString("\n" + m.helpLine(help...))
	return b.String()
}

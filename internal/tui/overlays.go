package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/skilltree"
)

const journeyLimit = 15

func (m model) updateOverlay(k tea.KeyMsg) (model, tea.Cmd) {
	if key.Matches(k, m.keys.Back) {
		m.overlay = overlayNone
		m.status = ""
		return m, nil
	}
	switch m.overlay {
	case overlaySkills:
		return m.updateSkills(k)
	case overlayThemes:
		return m.updateThemes(k)
	}
	return m, nil
}

func (m model) updateSkills(k tea.KeyMsg) (model, tea.Cmd) {
	trees := m.cat.SkillTrees
	if len(trees) == 0 {
		return m, nil
	}
	tree := &trees[m.skillTab]
	switch {
	case key.Matches(k, m.keys.Left):
		m.skillTab = (m.skillTab + len(trees) - 1) % len(trees)
		m.skillCursor = 0
	case key.Matches(k, m.keys.Right):
		m.skillTab = (m.skillTab + 1) % len(trees)
		m.skillCursor = 0
	case key.Matches(k, m.keys.Up):
		if m.skillCursor > 0 {
			m.skillCursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.skillCursor < len(tree.Skills)-1 {
			m.skillCursor++
		}
	case key.Matches(k, m.keys.Enter):
		if m.skillCursor >= len(tree.Skills) {
			return m, nil
		}
		skill := tree.Skills[m.skillCursor]
		level := skilltree.Level(skill, m.deps.Store.State().SkillLevels)
		cost := skilltree.Cost(skill, level)
		if m.deps.Store.PurchaseSkill(tree.ID, skill.ID) {
			m.status = m.printer.Sprintf("%s is now level %d (-%d tokens)", skill.Name, level+1, cost)
		} else {
			m.status = fmt.Sprintf("Cannot upgrade %s right now.", skill.Name)
		}
	}
	return m, nil
}

func (m model) updateThemes(k tea.KeyMsg) (model, tea.Cmd) {
	themes := m.cat.Themes
	switch {
	case key.Matches(k, m.keys.Up):
		if m.themeCursor > 0 {
			m.themeCursor--
		}
	case key.Matches(k, m.keys.Down):
		if m.themeCursor < len(themes)-1 {
			m.themeCursor++
		}
	case key.Matches(k, m.keys.Enter):
		if m.themeCursor < len(themes) {
			m.deps.Store.SetCurrentTheme(themes[m.themeCursor].ID)
			m.status = "Theme set to " + themes[m.themeCursor].Name
			m.refreshViewport()
		}
	}
	return m, nil
}

func (m model) viewOverlay() string {
	var body string
	switch m.overlay {
	case overlayAchievements:
		body = m.viewAchievements()
	case overlaySkills:
		body = m.viewSkills()
	case overlayThemes:
		body = m.viewThemes()
	case overlayJourney:
		body = m.viewJourney()
	}
	return m.header() + "\n\n" + body
}

func (m model) viewAchievements() string {
	s := m.deps.Store.State()
	progress := m.deps.Evaluator.All(s)
	earned := 0

	var b strings.Builder
	for _, a := range m.cat.Achievements {
		have := m.deps.Ledger.Has(a.ID)
		if have {
			earned++
		}
		if a.Hidden && !have {
			b.WriteString("  ❔ " + m.st.muted.Render("Hidden achievement") + "\n")
			continue
		}
		p := progress[a.ID]
		line := fmt.Sprintf("%s %-22s %s", a.Icon, a.Name, m.st.muted.Render(fmt.Sprintf("[%d/%d]", p.Progress, p.Total)))
		switch {
		case have:
			line = m.st.good.Render("✓ ") + line
		case p.Completed:
			line = m.st.selected.Render("★ ") + line
		default:
			line = "  " + line
		}
		b.WriteString(line + "  " + m.st.muted.Render(a.Description) + "\n")
	}

	head := fmt.Sprintf("%s  %d/%d earned · title: %s",
		m.st.title.Render("ACHIEVEMENTS"), earned, len(m.cat.Achievements),
		m.deps.Evaluator.PlayerTitle(m.deps.Ledger.IDs()))
	return head + "\n\n" + b.String() + "\n" + m.helpLine("esc: close")
}

func (m model) viewSkills() string {
	trees := m.cat.SkillTrees
	if len(trees) == 0 {
		return "No skill trees." + "\n\n" + m.helpLine("esc: close")
	}
	tree := &trees[m.skillTab]
	levels := m.deps.Store.State().SkillLevels
	unlocked := skilltree.UnlockedIDs(tree, levels)
	open := make(map[string]bool)
	for _, n := range m.deps.Skills.Unlockable(tree.ID, unlocked) {
		open[n.ID] = true
	}

	var tabs []string
	for i, t := range trees {
		if i == m.skillTab {
			tabs = append(tabs, m.st.selected.Render("["+t.Name+"]"))
		} else {
			tabs = append(tabs, m.st.muted.Render(t.Name))
		}
	}

	var b strings.Builder
	b.WriteString(m.st.title.Render("SKILL TREES") + "  " + strings.Join(tabs, "  ") + "\n\n")
	pct := m.deps.Skills.Progress(tree.ID, unlocked)
	fmt.Fprintf(&b, "%s\n%s %3.0f%% unlocked\n\n", m.st.muted.Render(tree.Description), m.bar.ViewAs(pct/100), pct)

	for i, sk := range tree.Skills {
		level := skilltree.Level(sk, levels)
		var state string
		switch {
		case level >= sk.MaxLevel:
			state = m.st.good.Render(fmt.Sprintf("max %d/%d", level, sk.MaxLevel))
		case level > 0:
			state = m.printer.Sprintf("lvl %d/%d · upgrade %d", level, sk.MaxLevel, skilltree.Cost(sk, level))
		case open[sk.ID]:
			state = m.st.selected.Render(m.printer.Sprintf("unlock %d", skilltree.Cost(sk, 0)))
		default:
			state = m.st.locked.Render("locked")
		}
		name := fmt.Sprintf("%s %s", sk.Icon, sk.Name)
		if i == m.skillCursor {
			name = "> " + m.st.selected.Render(name)
		} else {
			name = "  " + name
		}
		fmt.Fprintf(&b, "%-40s %s\n", name, state)
	}
	if m.skillCursor < len(tree.Skills) {
		sk := tree.Skills[m.skillCursor]
		b.WriteString("\n" + m.st.muted.Render(sk.Description) + "\n")
		if len(sk.Prerequisites) > 0 {
			b.WriteString(m.st.muted.Render("Requires: "+strings.Join(m.skillNames(tree, sk.Prerequisites), ", ")) + "\n")
		}
		if linked := m.deps.Skills.Connected(tree.ID, sk.ID); len(linked) > 0 {
			var names []string
			for _, n := range linked {
				names = append(names, n.Name)
			}
			b.WriteString(m.st.muted.Render("Leads to: "+strings.Join(names, ", ")) + "\n")
		}
		for _, benefit := range sk.Benefits {
			b.WriteString("  • " + benefit + "\n")
		}
	}
	b.WriteString("\n" + m.helpLine("←/→: tree", "enter: unlock or upgrade", "esc: close"))
	return b.String()
}

func (m model) skillNames(tree *catalog.SkillTree, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if sk, ok := tree.Skill(id); ok {
			out = append(out, sk.Name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func (m model) viewThemes() string {
	current := m.deps.Store.State().CurrentTheme
	var b strings.Builder
	b.WriteString(m.st.title.Render("THEMES") + "\n\n")
	for i, t := range m.cat.Themes {
		name := t.Name
		if t.ID == current {
			name += " (current)"
		}
		if i == m.themeCursor {
			b.WriteString("> " + m.st.selected.Render(name) + "\n")
		} else {
			b.WriteString("  " + name + "\n")
		}
	}
	b.WriteString("\n" + m.helpLine("enter: apply", "esc: close"))
	return b.String()
}

func (m model) viewJourney() string {
	journey := m.deps.Store.State().Journey
	var b strings.Builder
	b.WriteString(m.st.title.Render("JOURNEY") + "\n\n")
	if len(journey) == 0 {
		b.WriteString(m.st.muted.Render("Your journey has not started yet.") + "\n")
	}
	start := max(len(journey)-journeyLimit, 0)
	for i := len(journey) - 1; i >= start; i-- {
		ms := journey[i]
		fmt.Fprintf(&b, "%s  %s\n", m.st.muted.Render(ms.At.Format("Jan 2 15:04")), ms.Title)
	}
	b.WriteString("\n" + m.helpLine("esc: close"))
	return b.String()
}

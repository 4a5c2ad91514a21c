// Package skilltree computes progress and purchase options over the static
// skill trees.
package skilltree

import (
	"slices"

	"github.com/tatianab/stemverse/internal/catalog"
)

// Calculator answers skill tree queries against a catalog.
type Calculator struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Calculator {
	return &Calculator{cat: cat}
}

// Progress is the percentage of nodes in the tree that are statically
// unlocked or listed in unlocked. Unknown trees report 0.
func (c *Calculator) Progress(treeID catalog.TreeID, unlocked []string) float64 {
	tree, ok := c.cat.Tree(treeID)
	if !ok {
		return 0
	}
	return TreeProgress(tree, unlocked)
}

// Unlockable lists nodes that are not yet unlocked and whose prerequisites
// are all unlocked.
func (c *Calculator) Unlockable(treeID catalog.TreeID, unlocked []string) []catalog.SkillNode {
	tree, ok := c.cat.Tree(treeID)
	if !ok {
		return nil
	}
	return UnlockableIn(tree, unlocked)
}

// Connected returns the nodes the given skill links to, in tree order.
func (c *Calculator) Connected(treeID catalog.TreeID, skillID string) []catalog.SkillNode {
	tree, ok := c.cat.Tree(treeID)
	if !ok {
		return nil
	}
	skill, ok := tree.Skill(skillID)
	if !ok {
		return nil
	}
	var out []catalog.SkillNode
	for _, s := range tree.Skills {
		if slices.Contains(skill.Connections, s.ID) {
			out = append(out, s)
		}
	}
	return out
}

func TreeProgress(tree *catalog.SkillTree, unlocked []string) float64 {
	if len(tree.Skills) == 0 {
		return 0
	}
	n := 0
	for _, s := range tree.Skills {
		if s.Unlocked || slices.Contains(unlocked, s.ID) {
			n++
		}
	}
	return 100 * float64(n) / float64(len(tree.Skills))
}

// UnlockableIn returns the locked nodes whose prerequisites are all in
// unlocked. Static roots count as unlocked only when listed.
func UnlockableIn(tree *catalog.SkillTree, unlocked []string) []catalog.SkillNode {
	var out []catalog.SkillNode
	for _, s := range tree.Skills {
		if s.Unlocked || slices.Contains(unlocked, s.ID) {
			continue
		}
		ready := true
		for _, p := range s.Prerequisites {
			if !slices.Contains(unlocked, p) {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, s)
		}
	}
	return out
}

// Cost is the price of raising a skill from currentLevel to currentLevel+1.
func Cost(skill catalog.SkillNode, currentLevel int) int {
	return skill.Cost * (currentLevel + 1)
}

// Level returns the player's level in a skill: the purchased level if any,
// otherwise the static starting level.
func Level(skill catalog.SkillNode, levels map[string]int) int {
	if lvl, ok := levels[skill.ID]; ok {
		return lvl
	}
	if skill.Unlocked {
		return skill.Level
	}
	return 0
}

// UnlockedIDs returns the ids in tree with a level above zero.
func UnlockedIDs(tree *catalog.SkillTree, levels map[string]int) []string {
	var ids []string
	for _, s := range tree.Skills {
		if Level(s, levels) > 0 {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

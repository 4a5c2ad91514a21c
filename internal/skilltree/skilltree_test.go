package skilltree

import (
	"math"
	"slices"
	"testing"

	"github.com/tatianab/stemverse/internal/catalog"
)

func ids(nodes []catalog.SkillNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestProgress(t *testing.T) {
	c := New(catalog.Default())
	tests := []struct {
		tree     catalog.TreeID
		unlocked []string
		want     float64
	}{
		{"math", nil, 100.0 / 9},
		{"math", []string{"math_basics"}, 100.0 / 9},
		{"math", []string{"algebra_foundation", "geometry_explorer"}, 300.0 / 9},
		{catalog.GlobalTree, nil, 0},
		{catalog.GlobalTree, []string{"critical_thinking"}, 100.0 / 7},
		{"venus", []string{"x"}, 0},
	}
	for _, tt := range tests {
		got := c.Progress(tt.tree, tt.unlocked)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Progress(%s, %v) = %v, want %v", tt.tree, tt.unlocked, got, tt.want)
		}
	}
}

func TestUnlockable(t *testing.T) {
	c := New(catalog.Default())

	// The static root is not in the list, so nothing depending on it opens.
	if got := c.Unlockable("math", nil); len(got) != 0 {
		t.Errorf("Unlockable(math, nil) = %v, want none", ids(got))
	}

	got := ids(c.Unlockable("math", []string{"math_basics"}))
	want := []string{"algebra_foundation", "geometry_explorer", "pattern_recognition"}
	if !slices.Equal(got, want) {
		t.Errorf("Unlockable(math, [math_basics]) = %v, want %v", got, want)
	}

	got = ids(c.Unlockable("math", []string{"algebra_foundation"}))
	want = []string{"advanced_algebra", "function_mastery"}
	if !slices.Equal(got, want) {
		t.Errorf("Unlockable(math, [algebra_foundation]) = %v, want %v", got, want)
	}

	got = ids(c.Unlockable("math", []string{"math_basics", "algebra_foundation"}))
	want = []string{"geometry_explorer", "pattern_recognition", "advanced_algebra", "function_mastery"}
	if !slices.Equal(got, want) {
		t.Errorf("Unlockable(math, [math_basics algebra_foundation]) = %v, want %v", got, want)
	}

	// calculus needs both of its prerequisites.
	got = ids(c.Unlockable("math", []string{"algebra_foundation", "advanced_algebra"}))
	if slices.Contains(got, "calculus_basics") {
		t.Error("calculus_basics should need function_mastery too")
	}
	got = ids(c.Unlockable("math", []string{"algebra_foundation", "advanced_algebra", "function_mastery"}))
	if !slices.Contains(got, "calculus_basics") {
		t.Error("calculus_basics should be unlockable")
	}

	got = ids(c.Unlockable(catalog.GlobalTree, nil))
	if !slices.Equal(got, []string{"critical_thinking"}) {
		t.Errorf("Unlockable(global, nil) = %v", got)
	}
	if c.Unlockable("venus", nil) != nil {
		t.Error("expected nil for unknown tree")
	}
}

func TestCost(t *testing.T) {
	skill := catalog.SkillNode{ID: "s", Cost: 75}
	for level, want := range []int{75, 150, 225} {
		if got := Cost(skill, level); got != want {
			t.Errorf("Cost(level %d) = %d, want %d", level, got, want)
		}
	}
}

func TestLevel(t *testing.T) {
	static := catalog.SkillNode{ID: "a", Unlocked: true, Level: 1}
	locked := catalog.SkillNode{ID: "b"}
	if Level(static, nil) != 1 {
		t.Error("static node should report its starting level")
	}
	if Level(static, map[string]int{"a": 3}) != 3 {
		t.Error("purchased level should win")
	}
	if Level(locked, nil) != 0 {
		t.Error("locked node should be level 0")
	}
}

func TestConnected(t *testing.T) {
	c := New(catalog.Default())
	got := ids(c.Connected("math", "math_basics"))
	want := []string{"algebra_foundation", "pattern_recognition"}
	if !slices.Equal(got, want) {
		t.Errorf("Connected = %v, want %v", got, want)
	}
	// Links to nodes outside the tree are dropped.
	got = ids(c.Connected("math", "geometry_explorer"))
	if len(got) != 0 {
		t.Errorf("Connected(geometry_explorer) = %v, want none", got)
	}
}

func TestUnlockedIDs(t *testing.T) {
	tree, _ := catalog.Default().Tree("eco")
	got := UnlockedIDs(tree, map[string]int{"water_cycle": 1})
	if !slices.Equal(got, []string{"ecosystem_basics", "water_cycle"}) {
		t.Errorf("UnlockedIDs = %v", got)
	}
}

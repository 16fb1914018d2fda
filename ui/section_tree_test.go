package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/testwire/trx-reporter/traversal"
	"github.com/testwire/trx-reporter/trx"
	"github.com/testwire/trx-reporter/types"
)

// walkSections runs one complete traversal through the named sections,
// deepest last, advancing the shared clock one second per event. When fail
// is set a failing assertion is recorded at the deepest section.
func walkSections(now *time.Time, fail bool, names ...string) *traversal.Traversal {
	tr := &traversal.Traversal{}
	for i, name := range names {
		*now = now.Add(time.Second)
		tr.BeginSection(types.SectionDescriptor{Name: name, File: "widget_test.cpp", Line: 10 + i}, *now)
	}
	if fail {
		tr.RecordAssertion(types.Assertion{
			Kind:       types.ExpressionFailed,
			Macro:      "CHECK",
			Expression: "fits",
			Expanded:   "false",
			File:       "widget_test.cpp",
			Line:       42,
		})
	}
	for i := len(names) - 1; i >= 0; i-- {
		*now = now.Add(time.Second)
		tr.EndSection(types.SectionStats{Section: types.SectionDescriptor{Name: names[i]}, Passed: 1}, *now)
	}
	return tr
}

// openSections begins the named sections without ever closing them, leaving
// the traversal incomplete.
func openSections(now *time.Time, names ...string) *traversal.Traversal {
	tr := &traversal.Traversal{}
	for i, name := range names {
		*now = now.Add(time.Second)
		tr.BeginSection(types.SectionDescriptor{Name: name, File: "widget_test.cpp", Line: 10 + i}, *now)
	}
	return tr
}

func mustGroup(t *testing.T, ts ...*traversal.Traversal) *trx.ResultGroup {
	t.Helper()
	groups, err := trx.GroupTraversals(ts)
	if err != nil {
		t.Fatalf("GroupTraversals failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	return groups[0]
}

func TestSectionTree(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	passing := walkSections(&now, false, "Widget assembly", "bolts", "torque check")
	failing := walkSections(&now, true, "Widget assembly", "washers")
	g := mustGroup(t, passing, failing)

	got := SectionTree(g)
	want := "┌────────────────────────┐\n" +
		"│ Widget assembly        │\n" +
		"├────────────────────────┤\n" +
		"│ ├── bolts              │\n" +
		"│ │   └── torque check ✓ │\n" +
		"│ └── washers ✗          │\n" +
		"└────────────────────────┘\n"

	if got != want {
		t.Errorf("SectionTree =\n%s\nwant:\n%s", got, want)
	}
}

func TestSectionTreeFlatGroup(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := mustGroup(t, walkSections(&now, false, "Quick check"))

	got := SectionTree(g)

	if !strings.Contains(got, "Quick check ✓") {
		t.Errorf("title should carry the root mark, got:\n%s", got)
	}
	if !strings.Contains(got, "no sections recorded") {
		t.Errorf("flat group should note missing sections, got:\n%s", got)
	}
}

func TestSectionTreeInProgressMark(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := mustGroup(t, openSections(&now, "Long haul", "step"))

	got := SectionTree(g)

	if !strings.Contains(got, "└── step ⋯") {
		t.Errorf("open traversal should mark its deepest section in progress, got:\n%s", got)
	}
	if !strings.Contains(got, "Long haul (in progress)") {
		t.Errorf("title should use the provisional display name, got:\n%s", got)
	}
}

func TestSectionTreeMergesReenteredSections(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := walkSections(&now, false, "Retry", "attempt")
	second := walkSections(&now, true, "Retry", "attempt")
	g := mustGroup(t, first, second)

	got := SectionTree(g)

	if n := strings.Count(got, "attempt"); n != 1 {
		t.Errorf("re-entered section should render once, got %d occurrences:\n%s", n, got)
	}
	// One failure at the node outweighs the earlier pass.
	if !strings.Contains(got, "attempt ✗") {
		t.Errorf("mark should report the failure, got:\n%s", got)
	}
}

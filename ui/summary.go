package ui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testwire/trx-reporter/traversal"
	"github.com/testwire/trx-reporter/trx"
)

// Status labels used in the summary table.
const (
	StatusPass       = "PASS"
	StatusFail       = "FAIL"
	StatusInProgress = "IN PROGRESS"
)

// SummaryTable renders a console overview of the grouped results. Each group
// gets one row; data-driven groups additionally list their rows as indented
// tree branches. now supplies the end time for anything still running.
func SummaryTable(groups []*trx.ResultGroup, now time.Time) string {
	if len(groups) == 0 {
		return "No test results recorded.\n"
	}

	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle("Test Run Summary")

	t.AppendHeader(table.Row{"Test", "Rows", "Duration", "Status"})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 200, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Rows", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var (
		totalRows   int
		hasFailures bool
		inProgress  bool
		runStart    time.Time
		runFinish   time.Time
	)

	for _, g := range groups {
		start, finish := g.StartTime(now), g.FinishTime(now)
		if runStart.IsZero() || start.Before(runStart) {
			runStart = start
		}
		if finish.After(runFinish) {
			runFinish = finish
		}
		totalRows += len(g.Traversals)

		t.AppendRow(table.Row{
			g.DisplayName(),
			len(g.Traversals),
			formatDuration(finish.Sub(start)),
			groupStatus(g),
		})

		// Data-driven groups list each row beneath the parent.
		if len(g.Traversals) > 1 {
			for i, tr := range g.Traversals {
				prefix := TreeBranch
				if i == len(g.Traversals)-1 {
					prefix = TreeLastBranch
				}
				t.AppendRow(table.Row{
					prefix + rowLabel(tr, i),
					"",
					formatDuration(traversalDuration(tr, now)),
					traversalStatus(tr),
				})
			}
		}

		for _, tr := range g.Traversals {
			if !tr.IsComplete() {
				inProgress = true
			} else if !tr.IsOk() {
				hasFailures = true
			}
		}

		t.AppendSeparator()
	}

	// Update the table style based on overall result status
	if hasFailures {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else if inProgress {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	overallStatus := StatusPass
	if hasFailures {
		overallStatus = StatusFail
	} else if inProgress {
		overallStatus = StatusInProgress
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		totalRows,
		formatDuration(runFinish.Sub(runStart)),
		overallStatus,
	})

	t.Render()
	return buf.String()
}

// groupStatus reduces a group to a single display status.
func groupStatus(g *trx.ResultGroup) string {
	switch {
	case g.InProgress():
		return StatusInProgress
	case g.IsOk():
		return StatusPass
	default:
		return StatusFail
	}
}

func traversalStatus(t *traversal.Traversal) string {
	switch {
	case !t.IsComplete():
		return StatusInProgress
	case t.IsOk():
		return StatusPass
	default:
		return StatusFail
	}
}

// rowLabel names one row of a data-driven group by its section path below
// the shared root, falling back to the row's position when the traversal
// never left the root section.
func rowLabel(t *traversal.Traversal, index int) string {
	path := t.Sections()
	if len(path) <= 1 {
		return fmt.Sprintf("row %d", index+1)
	}
	parts := make([]string, 0, len(path)-1)
	for _, desc := range path[1:] {
		parts = append(parts, desc.Name)
	}
	return strings.Join(parts, " / ")
}

// traversalDuration measures one traversal, using now when it is still open.
func traversalDuration(t *traversal.Traversal, now time.Time) time.Duration {
	start := t.StartTime()
	if start.IsZero() {
		return 0
	}
	finish := t.FinishTime()
	if finish.IsZero() {
		finish = now
	}
	if finish.Before(start) {
		return 0
	}
	return finish.Sub(start)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// Package trx groups section traversals into test results and serializes
// them as VSTest-compatible TRX documents.
package trx

import (
	"time"

	"github.com/testwire/trx-reporter/format"
	"github.com/testwire/trx-reporter/traversal"
)

// ResultGroup is one externally visible test result: a sanitized display
// name, a generated id pair, and the ordered traversals that share the same
// root section name. A group with one traversal renders flat; a group with
// several renders as a data-driven test with one inner row per traversal.
type ResultGroup struct {
	Name        string
	TestID      string
	ExecutionID string
	Tags        []string
	Traversals  []*traversal.Traversal
}

// GroupTraversals partitions traversals into result groups. Traversal order
// is preserved; a new group starts whenever the incoming traversal's
// sanitized root section name differs from the running group's, or when
// either side has no sections at all (a defensive split so malformed input
// never merges into a neighbour).
func GroupTraversals(ts []*traversal.Traversal) ([]*ResultGroup, error) {
	var groups []*ResultGroup
	var current *ResultGroup
	for _, t := range ts {
		rootName, err := sanitizedRootName(t)
		if err != nil {
			return nil, err
		}
		if current == nil || startsNewGroup(current, t, rootName) {
			current = &ResultGroup{
				Name:        rootName,
				TestID:      format.NewGUID(),
				ExecutionID: format.NewGUID(),
				Tags:        t.Tags,
			}
			groups = append(groups, current)
		}
		current.Traversals = append(current.Traversals, t)
	}
	return groups, nil
}

func sanitizedRootName(t *traversal.Traversal) (string, error) {
	sections := t.Sections()
	if len(sections) == 0 {
		return "", nil
	}
	return format.SanitizeName(sections[0].Name)
}

func startsNewGroup(g *ResultGroup, t *traversal.Traversal, rootName string) bool {
	last := g.Traversals[len(g.Traversals)-1]
	if len(last.Sections()) == 0 || len(t.Sections()) == 0 {
		return true
	}
	return g.Name != rootName
}

// IsOk reports whether every traversal in the group finished cleanly. An
// in-progress group is never ok; its outcome is provisionally Failed until
// the run completes.
func (g *ResultGroup) IsOk() bool {
	for _, t := range g.Traversals {
		if !t.IsOk() {
			return false
		}
	}
	return true
}

// InProgress reports whether the group's last traversal is still open.
func (g *ResultGroup) InProgress() bool {
	if len(g.Traversals) == 0 {
		return false
	}
	return !g.Traversals[len(g.Traversals)-1].IsComplete()
}

// DisplayName is the name document consumers see: the sanitized root name,
// suffixed while the group's outcome is still provisional.
func (g *ResultGroup) DisplayName() string {
	if g.InProgress() {
		return g.Name + " (in progress)"
	}
	return g.Name
}

// StartTime is when the group's first traversal started. It falls back to
// now while that traversal is still open, so provisional documents carry a
// usable value.
func (g *ResultGroup) StartTime(now time.Time) time.Time {
	if len(g.Traversals) == 0 || !g.Traversals[0].IsComplete() {
		return now
	}
	return g.Traversals[0].StartTime()
}

// FinishTime is when the group's last traversal finished, with the same
// now fallback as StartTime.
func (g *ResultGroup) FinishTime(now time.Time) time.Time {
	if len(g.Traversals) == 0 {
		return now
	}
	last := g.Traversals[len(g.Traversals)-1]
	if !last.IsComplete() {
		return now
	}
	return last.FinishTime()
}

// RunName returns the run name stamped on the group's first traversal,
// empty when none was recorded.
func (g *ResultGroup) RunName() string {
	if len(g.Traversals) == 0 {
		return ""
	}
	return g.Traversals[0].RunName
}

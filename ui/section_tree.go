package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/testwire/trx-reporter/traversal"
	"github.com/testwire/trx-reporter/trx"
)

// Status marks rendered next to a section where at least one traversal ended.
const (
	MarkPassed     = "✓"
	MarkFailed     = "✗"
	MarkInProgress = "⋯"
)

// sectionNode is one section in the merged hierarchy of a result group.
// Every traversal of the group contributes its section path; re-entered
// sections share a node. The counters track traversals that terminated at
// this node, i.e. for which it was the deepest section.
type sectionNode struct {
	name     string
	children []*sectionNode
	passed   int
	failed   int
	pending  int
}

func (n *sectionNode) child(name string) *sectionNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &sectionNode{name: name}
	n.children = append(n.children, c)
	return c
}

func (n *sectionNode) record(t *traversal.Traversal) {
	switch {
	case !t.IsComplete():
		n.pending++
	case t.IsOk():
		n.passed++
	default:
		n.failed++
	}
}

// mark returns the status symbol for the node, or "" when no traversal
// terminated here. A single failure outweighs any number of passes.
func (n *sectionNode) mark() string {
	switch {
	case n.failed > 0:
		return " " + MarkFailed
	case n.pending > 0:
		return " " + MarkInProgress
	case n.passed > 0:
		return " " + MarkPassed
	}
	return ""
}

// SectionTree renders the section hierarchy of a result group as a boxed
// tree, one line per section, with pass/fail marks where traversals ended.
// The root section is folded into the box title since every traversal of a
// group shares it.
func SectionTree(g *trx.ResultGroup) string {
	root := &sectionNode{}
	for _, t := range g.Traversals {
		path := t.Sections()
		if len(path) == 0 {
			continue
		}
		node := root
		for _, desc := range path[1:] {
			node = node.child(desc.Name)
		}
		node.record(t)
	}

	title := g.DisplayName() + root.mark()
	lines := renderNodes(root.children, nil)
	if len(lines) == 0 {
		lines = []string{"no sections recorded"}
	}

	width := utf8.RuneCountInString(title) + 4
	for _, line := range lines {
		if w := utf8.RuneCountInString(line) + 4; w > width {
			width = w
		}
	}

	var sb strings.Builder
	sb.WriteString(BuildBoxHeader(title, width))
	for _, line := range lines {
		sb.WriteString(BuildBoxLine(line, width))
	}
	sb.WriteString(BuildBoxFooter(width))
	return sb.String()
}

// renderNodes walks the children depth-first and prefixes each line with the
// usual tree connectors. parentIsLast carries the sibling positions of the
// ancestors so continuation lines stop below a last branch.
func renderNodes(nodes []*sectionNode, parentIsLast []bool) []string {
	var lines []string
	depth := len(parentIsLast) + 1
	for i, node := range nodes {
		isLast := i == len(nodes)-1
		prefix := BuildTreePrefix(depth, isLast, parentIsLast)
		lines = append(lines, prefix+node.name+node.mark())
		chain := append(append([]bool{}, parentIsLast...), isLast)
		lines = append(lines, renderNodes(node.children, chain)...)
	}
	return lines
}

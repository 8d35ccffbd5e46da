package layout

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Kind records how a node of the decision tree was produced.
type Kind int

const (
	// KindEmpty is a bound with no panels (only at the root).
	KindEmpty Kind = iota
	// KindLeaf assigns its whole bound to a single panel.
	KindLeaf
	// KindRatio is a cut at one of the candidate split ratios.
	KindRatio
	// KindContinuity reproduces the cut found in the previous layout.
	KindContinuity
	// KindFallback is the even split used when every ratio was rejected.
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRatio:
		return "ratio"
	case KindContinuity:
		return "continuity"
	case KindFallback:
		return "fallback"
	default:
		return "empty"
	}
}

// Tree is the winning branch of one partitioner run. Inner nodes hold the
// chosen cut; leaves hold the assignment.
type Tree struct {
	Bounds Cell
	Kind   Kind
	Axis   Axis
	// Ratio is the fraction of the bound given to the first child.
	Ratio float64
	// Total is the sum of score*weight over every leaf below this node.
	Total float64
	// Candidates is the number of cuts evaluated at this node.
	Candidates int
	Children   []*Tree
	Assignment *Assignment

	index int
}

// Assignments flattens the tree into assignments ordered by input panel
// position. The result is never nil.
func (t *Tree) Assignments() []Assignment {
	type indexed struct {
		a     Assignment
		index int
	}
	var leaves []indexed
	t.walk(func(n *Tree) {
		if n.Assignment != nil {
			leaves = append(leaves, indexed{*n.Assignment, n.index})
		}
	})
	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].index < leaves[j].index })
	out := make([]Assignment, len(leaves))
	for i, l := range leaves {
		out[i] = l.a
	}
	return out
}

// Depth returns the number of levels in the tree (a single leaf is 1).
func (t *Tree) Depth() int {
	if t == nil {
		return 0
	}
	d := 0
	for _, c := range t.Children {
		d = max(d, c.Depth())
	}
	return d + 1
}

func (t *Tree) walk(fn func(*Tree)) {
	if t == nil {
		return
	}
	fn(t)
	for _, c := range t.Children {
		c.walk(fn)
	}
}

// ToDOT returns a Graphviz DOT representation of the decision tree.
//
// Inner nodes show the cut axis, ratio and weighted total; leaves show the
// panel id, its cell and its score.
func (t *Tree) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph Partition {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")
	t.writeDOTNode(&buf, 0)
	buf.WriteString("}\n")
	return buf.String()
}

func (t *Tree) writeDOTNode(buf *bytes.Buffer, id int) int {
	nodeID := fmt.Sprintf("n%d", id)
	next := id + 1

	switch t.Kind {
	case KindLeaf:
		a := t.Assignment
		label := fmt.Sprintf("%s\\n%s\\nscore=%.3f", strings.ReplaceAll(a.PanelID, `"`, `\"`), a.Cell, a.Score)
		fmt.Fprintf(buf, "  %s [label=\"%s\", shape=box, style=\"filled,rounded\"];\n", nodeID, label)
	case KindEmpty:
		fmt.Fprintf(buf, "  %s [label=\"empty\", shape=plaintext];\n", nodeID)
	default:
		label := fmt.Sprintf("%s %s %.2f\\ntotal=%.3f (%d)", t.Kind, t.Axis, t.Ratio, t.Total, t.Candidates)
		fmt.Fprintf(buf, "  %s [label=\"%s\", shape=ellipse];\n", nodeID, label)
		for _, c := range t.Children {
			fmt.Fprintf(buf, "  %s -> n%d;\n", nodeID, next)
			next = c.writeDOTNode(buf, next)
		}
	}
	return next
}

// RenderSVG renders the decision tree to SVG with Graphviz.
func (t *Tree) RenderSVG(ctx context.Context) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(t.ToDOT()))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

package layout

import (
	"math"
	"sort"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// maxRelaxPasses caps overlap relaxation. Relaxation normally converges in a
// handful of passes; the cap keeps projection linear-time on pathologically
// unbalanced trees at the cost of slightly tight siblings.
const maxRelaxPasses = 32

type treeNode struct {
	id    string
	label string
	level int
	x     float64
}

// projectTree lays a tree out top-down: one row per depth level, leaves
// spaced at an even pitch that shrinks with the branching factor, every
// parent centered over its children, and the whole bounding box recentered
// on the origin.
func (p *Projector) projectTree(root *trace.Node) Layout {
	if root == nil {
		return Layout{Empty: true}
	}

	var order []*treeNode
	var edges []Edge

	maxBranch := 0
	maxLevel := 0
	var measure func(n *trace.Node, level int)
	measure = func(n *trace.Node, level int) {
		if level > maxLevel {
			maxLevel = level
		}
		if len(n.Children) > maxBranch {
			maxBranch = len(n.Children)
		}
		for _, c := range n.Children {
			measure(c, level+1)
		}
	}
	measure(root, 0)

	pitch := p.cfg.TreeBasePitch
	if maxBranch > 2 {
		pitch = p.cfg.TreeBasePitch * 2 / float64(maxBranch)
	}

	// Post-order placement: leaves take the next slot on a running cursor,
	// parents sit at the arithmetic mean of their children.
	cursor := 0.0
	var place func(n *trace.Node, level int) *treeNode
	place = func(n *trace.Node, level int) *treeNode {
		t := &treeNode{id: n.ID, label: n.Label, level: level}
		if len(n.Children) == 0 {
			t.x = cursor
			cursor += pitch
		} else {
			sum := 0.0
			for _, c := range n.Children {
				child := place(c, level+1)
				sum += child.x
				edges = append(edges, Edge{From: n.ID, To: c.ID, Kind: EdgeParent, Directed: true})
			}
			t.x = sum / float64(len(n.Children))
		}
		order = append(order, t)
		return t
	}
	place(root, 0)

	relaxLevels(order, maxLevel, p.cfg.TreeMinGap)

	// Recenter the bounding box on the origin in both axes.
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, t := range order {
		minX = math.Min(minX, t.x)
		maxX = math.Max(maxX, t.x)
	}
	shiftX := (minX + maxX) / 2
	shiftY := float64(maxLevel) * p.cfg.LevelHeight / 2

	l := Layout{Elements: make([]Element, 0, len(order)), Edges: edges}
	for _, t := range order {
		l.Elements = append(l.Elements, Element{
			ID:    t.id,
			Label: t.label,
			Pos: Point{
				X: finite(t.x - shiftX),
				Y: finite(float64(t.level)*p.cfg.LevelHeight - shiftY),
			},
		})
	}
	return l
}

// relaxLevels pushes overlapping same-level neighbors apart symmetrically
// until every adjacent pair is at least minGap apart or the pass budget is
// spent.
func relaxLevels(nodes []*treeNode, maxLevel int, minGap float64) {
	byLevel := make([][]*treeNode, maxLevel+1)
	for _, t := range nodes {
		byLevel[t.level] = append(byLevel[t.level], t)
	}

	for _, row := range byLevel {
		if len(row) < 2 {
			continue
		}
		for pass := 0; pass < maxRelaxPasses; pass++ {
			sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })
			moved := false
			for i := 0; i+1 < len(row); i++ {
				gap := row[i+1].x - row[i].x
				if gap >= minGap {
					continue
				}
				push := (minGap - gap) / 2
				row[i].x -= push
				row[i+1].x += push
				moved = true
			}
			if !moved {
				break
			}
		}
	}
}

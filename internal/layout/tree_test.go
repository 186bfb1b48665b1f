package layout

import (
	"math"
	"sort"
	"testing"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

func findElement(t *testing.T, l Layout, id string) Element {
	t.Helper()
	for _, el := range l.Elements {
		if el.ID == id {
			return el
		}
	}
	t.Fatalf("element %q not in layout", id)
	return Element{}
}

func TestProjectTreeParentCenteredOverChildren(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := &trace.State{
		Kind: trace.KindTree,
		Root: &trace.Node{ID: "t0", Label: "2", Children: []*trace.Node{
			{ID: "t1", Label: "1"},
			{ID: "t2", Label: "3"},
		}},
	}

	l := p.Project(st, nil)
	root := findElement(t, l, "t0")
	left := findElement(t, l, "t1")
	right := findElement(t, l, "t2")

	mid := (left.Pos.X + right.Pos.X) / 2
	if math.Abs(root.Pos.X-mid) > 1e-9 {
		t.Fatalf("root at x=%v, want midpoint %v", root.Pos.X, mid)
	}
	if left.Pos.Y != right.Pos.Y {
		t.Fatal("siblings must share a level")
	}
	if root.Pos.Y >= left.Pos.Y {
		t.Fatal("root must sit above its children")
	}
}

func TestProjectTreeLevelsAndEdges(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := &trace.State{
		Kind: trace.KindTree,
		Root: &trace.Node{ID: "t0", Label: "a", Children: []*trace.Node{
			{ID: "t1", Label: "b", Children: []*trace.Node{
				{ID: "t2", Label: "c"},
			}},
		}},
	}

	l := p.Project(st, nil)
	top := findElement(t, l, "t0")
	mid := findElement(t, l, "t1")
	leaf := findElement(t, l, "t2")

	cfg := p.Config()
	if got := mid.Pos.Y - top.Pos.Y; got != cfg.LevelHeight {
		t.Fatalf("level spacing %v, want %v", got, cfg.LevelHeight)
	}
	if got := leaf.Pos.Y - mid.Pos.Y; got != cfg.LevelHeight {
		t.Fatalf("level spacing %v, want %v", got, cfg.LevelHeight)
	}

	if len(l.Edges) != 2 {
		t.Fatalf("expected 2 parent edges, got %d", len(l.Edges))
	}
	for _, e := range l.Edges {
		if e.Kind != EdgeParent || !e.Directed {
			t.Fatalf("unexpected edge: %+v", e)
		}
	}
}

func TestProjectTreeBoundingBoxCentered(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := &trace.State{
		Kind: trace.KindTree,
		Root: &trace.Node{ID: "t0", Label: "r", Children: []*trace.Node{
			{ID: "t1", Label: "a"},
			{ID: "t2", Label: "b"},
			{ID: "t3", Label: "c"},
			{ID: "t4", Label: "d"},
		}},
	}

	l := p.Project(st, nil)
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, el := range l.Elements {
		minX = math.Min(minX, el.Pos.X)
		maxX = math.Max(maxX, el.Pos.X)
		minY = math.Min(minY, el.Pos.Y)
		maxY = math.Max(maxY, el.Pos.Y)
	}
	if math.Abs(minX+maxX) > 1e-9 {
		t.Fatalf("x bounding box [%v, %v] not centered on the origin", minX, maxX)
	}
	if math.Abs(minY+maxY) > 1e-9 {
		t.Fatalf("y bounding box [%v, %v] not centered on the origin", minY, maxY)
	}
}

func TestProjectTreeNoSiblingOverlap(t *testing.T) {
	p := NewProjector(DefaultConfig())
	// Deep left spine next to a deep right spine forces level crowding.
	spine := func(prefix string, depth int) *trace.Node {
		root := &trace.Node{ID: prefix + "0", Label: prefix}
		cur := root
		for i := 1; i < depth; i++ {
			child := &trace.Node{ID: prefix + string(rune('0'+i)), Label: prefix}
			cur.Children = []*trace.Node{child}
			cur = child
		}
		return root
	}
	st := &trace.State{
		Kind: trace.KindTree,
		Root: &trace.Node{ID: "root", Label: "r", Children: []*trace.Node{
			spine("l", 4),
			spine("r", 4),
		}},
	}

	l := p.Project(st, nil)
	byY := map[float64][]float64{}
	for _, el := range l.Elements {
		byY[el.Pos.Y] = append(byY[el.Pos.Y], el.Pos.X)
	}
	minGap := p.Config().TreeMinGap
	for y, xs := range byY {
		for i := range xs {
			for j := i + 1; j < len(xs); j++ {
				if math.Abs(xs[i]-xs[j]) < minGap-1e-9 {
					t.Fatalf("level y=%v has elements %v apart, want >= %v", y, math.Abs(xs[i]-xs[j]), minGap)
				}
			}
		}
	}
}

func TestProjectTreePitchShrinksWithBranching(t *testing.T) {
	p := NewProjector(DefaultConfig())
	wide := &trace.Node{ID: "t0", Label: "r"}
	for i := 0; i < 5; i++ {
		wide.Children = append(wide.Children, &trace.Node{ID: "c" + string(rune('0'+i)), Label: "c"})
	}

	l := p.Project(&trace.State{Kind: trace.KindTree, Root: wide}, nil)
	leaves := make([]float64, 0, 5)
	for _, el := range l.Elements {
		if el.ID != "t0" {
			leaves = append(leaves, el.Pos.X)
		}
	}
	if len(leaves) != 5 {
		t.Fatalf("expected 5 leaves, got %d", len(leaves))
	}
	sort.Float64s(leaves)

	// Base pitch 125 shrinks to 2/5 of itself at branching factor 5, then the
	// relax pass widens the crowded row back toward the minimum gap.
	minGap := p.Config().TreeMinGap
	for i := 0; i+1 < len(leaves); i++ {
		gap := leaves[i+1] - leaves[i]
		if gap < minGap-0.5 {
			t.Fatalf("leaf gap %v below the minimum %v", gap, minGap)
		}
		if gap > p.Config().TreeBasePitch {
			t.Fatalf("leaf gap %v wider than the base pitch", gap)
		}
	}
}

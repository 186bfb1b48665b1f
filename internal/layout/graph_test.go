package layout

import (
	"math"
	"testing"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

func graphState(directed bool, nodes []string, edges []trace.GraphEdge) *trace.State {
	items := make([]trace.Item, len(nodes))
	for i, n := range nodes {
		items[i] = trace.Item{ID: n, Label: n}
	}
	return &trace.State{
		Kind:  trace.KindGraph,
		Graph: &trace.Graph{Directed: directed, Nodes: items, Edges: edges},
	}
}

func TestProjectGraphCirclePlacement(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := graphState(false, []string{"a", "b", "c", "d"}, nil)

	l := p.Project(st, nil)
	if len(l.Elements) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(l.Elements))
	}

	// 4 nodes at 40 per node is below the floor, so the radius clamps to 120.
	for _, el := range l.Elements {
		r := math.Hypot(el.Pos.X, el.Pos.Y)
		if math.Abs(r-120) > 1e-9 {
			t.Fatalf("element %s at radius %v, want 120", el.ID, r)
		}
	}

	// The first node starts at the top of the circle.
	first := findElement(t, l, "a")
	if math.Abs(first.Pos.X) > 1e-9 || math.Abs(first.Pos.Y+120) > 1e-9 {
		t.Fatalf("first node at %+v, want (0, -120)", first.Pos)
	}
}

func TestProjectGraphRadiusClamps(t *testing.T) {
	p := NewProjector(DefaultConfig())

	big := make([]string, 30)
	for i := range big {
		big[i] = "n" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	l := p.Project(graphState(false, big, nil), nil)
	r := math.Hypot(l.Elements[0].Pos.X, l.Elements[0].Pos.Y)
	if math.Abs(r-420) > 1e-9 {
		t.Fatalf("30-node radius %v, want the 420 ceiling", r)
	}
}

func TestProjectGraphOppositeEdgesCurved(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := graphState(true, []string{"a", "b", "c"}, []trace.GraphEdge{
		{From: "a", To: "b"},
		{From: "b", To: "a"},
		{From: "b", To: "c"},
	})

	l := p.Project(st, nil)
	if len(l.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(l.Edges))
	}
	for _, e := range l.Edges {
		wantCurved := (e.From == "a" && e.To == "b") || (e.From == "b" && e.To == "a")
		if e.Curved != wantCurved {
			t.Errorf("edge %s->%s curved=%v, want %v", e.From, e.To, e.Curved, wantCurved)
		}
		if !e.Directed {
			t.Errorf("edge %s->%s should carry direction", e.From, e.To)
		}
	}
}

func TestProjectGraphWeightLabels(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := graphState(false, []string{"a", "b", "c"}, []trace.GraphEdge{
		{From: "a", To: "b", Weight: 2.5, HasWeight: true},
		{From: "b", To: "c"},
	})
	st.Graph.Weighted = true

	l := p.Project(st, nil)
	if l.Edges[0].Label != "2.5" {
		t.Fatalf("weighted edge label %q, want 2.5", l.Edges[0].Label)
	}
	if l.Edges[1].Label != "" {
		t.Fatalf("weightless edge should carry no label, got %q", l.Edges[1].Label)
	}
}

func TestProjectGraphReusesPriorPositions(t *testing.T) {
	p := NewProjector(DefaultConfig())
	st := graphState(false, []string{"a", "b"}, nil)

	prior := map[string]Point{
		"a": {X: 11, Y: 22},
		"b": {X: -5, Y: 7},
	}
	l := p.Project(st, prior)
	if pos, _ := l.Position("a"); pos != prior["a"] {
		t.Fatalf("node a moved to %+v despite full prior coverage", pos)
	}
	if pos, _ := l.Position("b"); pos != prior["b"] {
		t.Fatalf("node b moved to %+v despite full prior coverage", pos)
	}

	// A prior missing any node invalidates reuse for the whole set.
	l = p.Project(graphState(false, []string{"a", "b", "new"}, nil), prior)
	if pos, _ := l.Position("a"); pos == prior["a"] {
		t.Fatal("stale prior should not be reused once the node set changes")
	}
}

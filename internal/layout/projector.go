package layout

import (
	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// NullMarkerID identifies the synthetic terminator element of linked
// sequences. The interaction overlay skips it.
const NullMarkerID = "__null__"

// Projector maps structural snapshots to geometry. It is stateless; prior
// positions, when relevant, are passed in per call.
type Projector struct {
	cfg Config
}

// NewProjector returns a projector using the given geometry constants.
func NewProjector(cfg Config) *Projector {
	return &Projector{cfg: cfg}
}

// Config returns the projector's geometry constants.
func (p *Projector) Config() Config { return p.cfg }

// Project computes the layout for a snapshot. prior holds the element
// positions of the previously rendered frame and may be nil; it is consulted
// only to keep graph nodes in place while the node set is unchanged.
// Uninterpretable or empty snapshots produce an Empty layout, never an error:
// malformed AI output is routine, not exceptional.
func (p *Projector) Project(st *trace.State, prior map[string]Point) Layout {
	if st == nil || st.Empty() {
		return Layout{Empty: true}
	}

	var l Layout
	switch {
	case st.Kind.IsLinear():
		l = p.projectLinear(st)
	case st.Kind == trace.KindTree:
		l = p.projectTree(st.Root)
	case st.Kind == trace.KindGraph:
		l = p.projectGraph(st.Graph, prior)
	default:
		return Layout{Empty: true}
	}

	if len(l.Elements) == 0 {
		return Layout{Empty: true}
	}
	for i := range l.Elements {
		l.Elements[i].Pos = finitePoint(l.Elements[i].Pos)
	}
	return l
}

// projectLinear places elements left to right at a fixed pitch, the whole row
// centered on the anchor: x_i = anchor + i*pitch - (n-1)*pitch/2.
func (p *Projector) projectLinear(st *trace.State) Layout {
	pitch := p.cfg.Pitch()
	n := len(st.Items)
	startX := p.cfg.AnchorX - float64(n-1)*pitch/2

	l := Layout{Elements: make([]Element, 0, n+1)}
	for i, item := range st.Items {
		l.Elements = append(l.Elements, Element{
			ID:    item.ID,
			Label: item.Label,
			Pos:   Point{X: startX + float64(i)*pitch},
		})
	}

	if !st.Kind.IsLinked() {
		return l
	}

	for i := 0; i+1 < n; i++ {
		l.Edges = append(l.Edges, Edge{
			From: st.Items[i].ID, To: st.Items[i+1].ID,
			Kind: EdgeNext, Directed: true,
		})
	}
	if st.Kind == trace.KindDoublyLinked {
		for i := 0; i+1 < n; i++ {
			l.Edges = append(l.Edges, Edge{
				From: st.Items[i+1].ID, To: st.Items[i].ID,
				Kind: EdgePrev, Directed: true, Curved: true,
			})
		}
	}

	if st.Kind == trace.KindCircularLinked {
		if n > 1 {
			l.Edges = append(l.Edges, Edge{
				From: st.Items[n-1].ID, To: st.Items[0].ID,
				Kind: EdgeLoop, Directed: true, Curved: true,
			})
		}
		return l
	}

	// Singly and doubly variants terminate in a null marker.
	l.Elements = append(l.Elements, Element{
		ID:     NullMarkerID,
		Label:  "null",
		Pos:    Point{X: startX + float64(n)*pitch},
		Marker: true,
	})
	l.Edges = append(l.Edges, Edge{
		From: st.Items[n-1].ID, To: NullMarkerID,
		Kind: EdgeNull, Directed: true,
	})
	return l
}

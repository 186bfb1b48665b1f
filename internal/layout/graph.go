package layout

import (
	"math"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// projectGraph places nodes evenly around a circle whose radius grows with
// the node count. Prior positions are reused verbatim while they still cover
// the whole node set, so an unchanged graph does not jump between steps.
func (p *Projector) projectGraph(g *trace.Graph, prior map[string]Point) Layout {
	if g == nil || len(g.Nodes) == 0 {
		return Layout{Empty: true}
	}

	n := len(g.Nodes)
	radius := math.Min(math.Max(float64(n)*p.cfg.RadiusPerNode, p.cfg.MinRadius), p.cfg.MaxRadius)

	reusable := prior != nil
	if reusable {
		for _, node := range g.Nodes {
			if _, ok := prior[node.ID]; !ok {
				reusable = false
				break
			}
		}
	}

	l := Layout{Elements: make([]Element, 0, n)}
	for i, node := range g.Nodes {
		var pos Point
		if reusable {
			pos = prior[node.ID]
		} else {
			angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
			pos = Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
		}
		l.Elements = append(l.Elements, Element{ID: node.ID, Label: node.Label, Pos: finitePoint(pos)})
	}

	// Opposite-direction pairs are curved apart so they do not overlap.
	seen := make(map[[2]string]bool, len(g.Edges))
	for _, e := range g.Edges {
		seen[[2]string{e.From, e.To}] = true
	}

	for _, e := range g.Edges {
		edge := Edge{
			From:     e.From,
			To:       e.To,
			Kind:     EdgeLink,
			Directed: g.Directed,
			Curved:   g.Directed && seen[[2]string{e.To, e.From}] && e.From != e.To,
		}
		if g.Weighted && e.HasWeight {
			edge.Label = formatWeight(e.Weight)
		}
		l.Edges = append(l.Edges, edge)
	}
	return l
}

// Package layout computes on-screen geometry for structural snapshots. The
// projection is pure and deterministic: identical inputs always produce
// identical element positions, so frames can be diffed against fixtures.
package layout

import (
	"math"
	"strconv"
)

// Point is a 2D coordinate in scene units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeKind classifies a connection for styling purposes.
type EdgeKind string

const (
	// EdgeNext links element i to i+1 in a linked sequence.
	EdgeNext EdgeKind = "next"
	// EdgePrev is the reverse link of a doubly linked sequence.
	EdgePrev EdgeKind = "prev"
	// EdgeLoop closes a circular sequence back to its head.
	EdgeLoop EdgeKind = "loop"
	// EdgeParent connects a tree node to a child.
	EdgeParent EdgeKind = "parent"
	// EdgeLink is a plain graph edge.
	EdgeLink EdgeKind = "link"
	// EdgeNull points at the terminator marker of a linked sequence.
	EdgeNull EdgeKind = "null"
)

// Element is one positioned node of the projection.
type Element struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Pos   Point  `json:"pos"`
	// Marker is true for synthetic elements such as the null terminator,
	// which are drawn differently and ignored by the interaction overlay.
	Marker bool `json:"marker,omitempty"`
}

// Edge is a positioned connection between two elements, referenced by ID.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Kind     EdgeKind `json:"kind"`
	Directed bool     `json:"directed,omitempty"`
	// Curved requests a quadratic offset so opposite-direction edges of the
	// same pair do not overlap.
	Curved bool   `json:"curved,omitempty"`
	Label  string `json:"label,omitempty"`
}

// Layout is the full projection of one snapshot. Empty is set when the
// snapshot carried nothing interpretable; the consumer renders a placeholder.
type Layout struct {
	Elements []Element `json:"elements"`
	Edges    []Edge    `json:"edges"`
	Empty    bool      `json:"empty"`
}

// Position returns the position of the element with the given ID.
func (l Layout) Position(id string) (Point, bool) {
	for _, el := range l.Elements {
		if el.ID == id {
			return el.Pos, true
		}
	}
	return Point{}, false
}

// Config holds the geometry constants of the projector.
type Config struct {
	// ElementWidth and Gap define the linear pitch: width + gap.
	ElementWidth float64
	Gap          float64
	// AnchorX is the horizontal center of linear rows.
	AnchorX float64

	// LevelHeight is the vertical distance between tree levels.
	LevelHeight float64
	// TreeBasePitch is the leaf spacing for a binary tree; it shrinks
	// proportionally for higher branching factors.
	TreeBasePitch float64
	// TreeMinGap is the smallest horizontal distance allowed between nodes
	// on the same level after overlap relaxation.
	TreeMinGap float64

	// Graph nodes sit on a circle of radius n*RadiusPerNode clamped to
	// [MinRadius, MaxRadius].
	RadiusPerNode float64
	MinRadius     float64
	MaxRadius     float64
}

// DefaultConfig mirrors the frontend's nominal element geometry.
func DefaultConfig() Config {
	return Config{
		ElementWidth:  90,
		Gap:           35,
		AnchorX:       0,
		LevelHeight:   110,
		TreeBasePitch: 125,
		TreeMinGap:    100,
		RadiusPerNode: 40,
		MinRadius:     120,
		MaxRadius:     420,
	}
}

// Pitch is the center-to-center distance of adjacent linear elements.
func (c Config) Pitch() float64 { return c.ElementWidth + c.Gap }

// finite substitutes 0 for NaN and infinities so malformed input can never
// leak a non-finite coordinate to the renderer.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finitePoint(p Point) Point {
	return Point{X: finite(p.X), Y: finite(p.Y)}
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

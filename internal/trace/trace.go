package trace

// Kind discriminates the structural shape carried by a trace. It is fixed for
// a whole sequence at parse time; consumers dispatch on it instead of
// re-inspecting payloads.
type Kind string

const (
	KindUnknown        Kind = ""
	KindArray          Kind = "array"
	KindString         Kind = "string"
	KindLinkedList     Kind = "linked_list"
	KindDoublyLinked   Kind = "doubly_linked_list"
	KindCircularLinked Kind = "circular_linked_list"
	KindTree           Kind = "tree"
	KindGraph          Kind = "graph"
)

// IsLinear reports whether elements of this kind are laid out in a single row.
func (k Kind) IsLinear() bool {
	switch k {
	case KindArray, KindString, KindLinkedList, KindDoublyLinked, KindCircularLinked:
		return true
	}
	return false
}

// IsLinked reports whether adjacent elements are connected.
func (k Kind) IsLinked() bool {
	switch k {
	case KindLinkedList, KindDoublyLinked, KindCircularLinked:
		return true
	}
	return false
}

// Item is a single element of a linear structure or a node of a graph.
// The ID is stable for the lifetime of the sequence so presentation state
// (offsets, highlights) survives reordering.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Node is one node of a hierarchical structure.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Children []*Node `json:"children,omitempty"`
}

// GraphEdge connects two graph nodes by ID.
type GraphEdge struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Weight    float64 `json:"weight,omitempty"`
	HasWeight bool    `json:"has_weight,omitempty"`
}

// Graph holds a network structure.
type Graph struct {
	Directed bool        `json:"directed"`
	Weighted bool        `json:"weighted"`
	Nodes    []Item      `json:"nodes"`
	Edges    []GraphEdge `json:"edges"`
}

// State is a snapshot of the visualized structure at one step. Exactly one of
// Items, Root or Graph is populated, according to Kind.
type State struct {
	Kind  Kind   `json:"kind"`
	Items []Item `json:"items,omitempty"`
	Root  *Node  `json:"root,omitempty"`
	Graph *Graph `json:"graph,omitempty"`
}

// Empty reports whether the state carries nothing to draw.
func (s *State) Empty() bool {
	if s == nil {
		return true
	}
	switch {
	case s.Kind.IsLinear():
		return len(s.Items) == 0
	case s.Kind == KindTree:
		return s.Root == nil
	case s.Kind == KindGraph:
		return s.Graph == nil || len(s.Graph.Nodes) == 0
	}
	return true
}

// Annotations names the element sets highlighted at a step. Precedence for
// rendering is active > compared > modified; the sets are not required to be
// disjoint upstream.
type Annotations struct {
	Active   []string `json:"active,omitempty"`
	Compared []string `json:"compared,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Step is one discrete recorded point of an analysis trace.
type Step struct {
	Index       int               `json:"index"`
	Line        int               `json:"line,omitempty"`
	Narrative   string            `json:"narrative"`
	State       *State            `json:"state,omitempty"`
	Annotations Annotations       `json:"annotations"`
	Pointers    map[string]string `json:"pointers,omitempty"`
}

// Sequence is the full ordered trace produced by one analysis call. It is
// never mutated after construction; a re-analysis replaces it wholesale.
type Sequence struct {
	Kind  Kind   `json:"kind"`
	Steps []Step `json:"steps"`
}

// NewSequence builds a sequence from steps, numbering them in order.
func NewSequence(kind Kind, steps []Step) *Sequence {
	out := make([]Step, len(steps))
	copy(out, steps)
	for i := range out {
		out[i].Index = i
	}
	return &Sequence{Kind: kind, Steps: out}
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Steps)
}

// At returns the step at i, or false when i is out of range.
func (s *Sequence) At(i int) (Step, bool) {
	if s == nil || i < 0 || i >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[i], true
}

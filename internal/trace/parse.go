package trace

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ParseKind resolves a declared structure name into a Kind. It accepts the
// aliases the analysis collaborator and the frontend are known to send.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_"))) {
	case "array", "arr", "vector", "slice":
		return KindArray
	case "string", "str", "chars":
		return KindString
	case "linked_list", "linkedlist", "list", "singly_linked_list", "sll":
		return KindLinkedList
	case "doubly_linked_list", "doublylinkedlist", "dll", "doubly":
		return KindDoublyLinked
	case "circular_linked_list", "circularlinkedlist", "cll", "circular":
		return KindCircularLinked
	case "tree", "binary_tree", "bst", "binary_search_tree", "heap", "trie":
		return KindTree
	case "graph", "network", "digraph", "dag":
		return KindGraph
	}
	return KindUnknown
}

// ParseState interprets one step's structural snapshot. The payload is
// AI-generated and routinely malformed: it may arrive as a pre-serialized JSON
// string, with loose field types, or with a shape contradicting the declared
// kind. The parser never fails; anything it cannot interpret yields nil and
// the caller renders a placeholder.
func ParseState(raw any, hint Kind) *State {
	raw = unwrapString(raw, hint)
	if raw == nil {
		return nil
	}

	// A raw string that is not JSON is only drawable as characters.
	if s, ok := raw.(string); ok {
		return stringState(s)
	}

	kind := hint
	if kind == KindUnknown || !shapeMatches(raw, kind) {
		kind = DetectKind(raw)
	}

	switch {
	case kind.IsLinear():
		items := linearItems(raw)
		if items == nil {
			return nil
		}
		return &State{Kind: kind, Items: items}
	case kind == KindTree:
		root := parseTree(raw)
		if root == nil {
			return nil
		}
		return &State{Kind: KindTree, Root: root}
	case kind == KindGraph:
		g := parseGraph(raw)
		if g == nil {
			return nil
		}
		return &State{Kind: KindGraph, Graph: g}
	}

	return nil
}

// DetectKind sniffs the structural shape of a payload. Best effort: the first
// matching heuristic wins and misclassification is a documented limitation,
// which is why callers prefer the declared kind whenever it fits.
func DetectKind(raw any) Kind {
	switch v := raw.(type) {
	case []any:
		for _, el := range v {
			if m, ok := el.(map[string]any); ok && hasTreeKeys(m) {
				return KindTree
			}
		}
		return KindArray
	case map[string]any:
		if _, ok := v["nodes"]; ok {
			return KindGraph
		}
		if _, ok := v["edges"]; ok {
			return KindGraph
		}
		if hasTreeKeys(v) || hasNodeValue(v) {
			return KindTree
		}
	case string:
		return KindString
	}
	return KindUnknown
}

// unwrapString handles states delivered as pre-serialized JSON.
func unwrapString(raw any, hint Kind) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	if hint == KindString || hint == KindUnknown {
		return trimmed
	}
	// Declared structured but not parseable as such.
	return trimmed
}

func stringState(s string) *State {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	items := make([]Item, len(runes))
	for i, r := range runes {
		items[i] = Item{ID: "e" + strconv.Itoa(i), Label: string(r)}
	}
	return &State{Kind: KindString, Items: items}
}

func shapeMatches(raw any, kind Kind) bool {
	switch v := raw.(type) {
	case []any:
		if kind == KindTree {
			// Level-order arrays are an accepted tree encoding.
			return true
		}
		if !kind.IsLinear() {
			return false
		}
		for _, el := range v {
			if m, ok := el.(map[string]any); ok && hasTreeKeys(m) {
				return false
			}
		}
		return true
	case map[string]any:
		switch kind {
		case KindTree:
			return hasTreeKeys(v) || hasNodeValue(v)
		case KindGraph:
			_, nodes := v["nodes"]
			_, edges := v["edges"]
			return nodes || edges
		}
		return false
	}
	return kind.IsLinear()
}

func hasTreeKeys(m map[string]any) bool {
	_, children := m["children"]
	_, left := m["left"]
	_, right := m["right"]
	return children || left || right
}

func hasNodeValue(m map[string]any) bool {
	_, value := m["value"]
	_, label := m["label"]
	return value || label
}

func linearItems(raw any) []Item {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(list))
	for i, el := range list {
		label, ok := scalarLabel(el)
		if !ok {
			if m, isMap := el.(map[string]any); isMap {
				label, ok = scalarLabel(m["value"])
				if !ok {
					label, ok = scalarLabel(m["label"])
				}
			}
			if !ok {
				continue
			}
		}
		items = append(items, Item{ID: "e" + strconv.Itoa(i), Label: label})
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// parseTree accepts either a nested node object or a flat level-order array
// where index i's children live at 2i+1 and 2i+2 (binary fallback).
func parseTree(raw any) *Node {
	switch v := raw.(type) {
	case map[string]any:
		ids := &idAllocator{prefix: "t"}
		return parseTreeNode(v, ids, 0)
	case []any:
		return parseLevelOrder(v)
	}
	return nil
}

// maxTreeDepth bounds recursion so malformed self-referencing payloads cannot
// blow the stack. A dropped subtree renders as a truncated branch.
const maxTreeDepth = 64

func parseTreeNode(m map[string]any, ids *idAllocator, depth int) *Node {
	if m == nil || depth > maxTreeDepth {
		return nil
	}
	label, ok := scalarLabel(m["value"])
	if !ok {
		label, ok = scalarLabel(m["label"])
	}
	if !ok {
		return nil
	}
	node := &Node{ID: ids.next(), Label: label}

	appendChild := func(raw any) {
		cm, isMap := raw.(map[string]any)
		if !isMap {
			return
		}
		if child := parseTreeNode(cm, ids, depth+1); child != nil {
			node.Children = append(node.Children, child)
		}
	}

	if children, ok := m["children"].([]any); ok {
		for _, c := range children {
			appendChild(c)
		}
		return node
	}
	appendChild(m["left"])
	appendChild(m["right"])
	return node
}

func parseLevelOrder(list []any) *Node {
	if len(list) == 0 {
		return nil
	}
	nodes := make([]*Node, len(list))
	for i, el := range list {
		if el == nil {
			continue
		}
		label, ok := scalarLabel(el)
		if !ok {
			continue
		}
		nodes[i] = &Node{ID: "t" + strconv.Itoa(i), Label: label}
	}
	if nodes[0] == nil {
		return nil
	}
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if l := 2*i + 1; l < len(nodes) && nodes[l] != nil {
			n.Children = append(n.Children, nodes[l])
		}
		if r := 2*i + 2; r < len(nodes) && nodes[r] != nil {
			n.Children = append(n.Children, nodes[r])
		}
	}
	return nodes[0]
}

type graphPayload struct {
	Directed bool  `mapstructure:"directed"`
	Weighted bool  `mapstructure:"weighted"`
	Nodes    []any `mapstructure:"nodes"`
	Edges    []any `mapstructure:"edges"`
}

func parseGraph(raw any) *Graph {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	var payload graphPayload
	if err := mapstructure.Decode(m, &payload); err != nil {
		return nil
	}
	if len(payload.Nodes) == 0 {
		return nil
	}

	g := &Graph{Directed: payload.Directed, Weighted: payload.Weighted}
	known := make(map[string]bool, len(payload.Nodes))
	for i, el := range payload.Nodes {
		item := graphNode(el, i)
		if item == nil || known[item.ID] {
			continue
		}
		known[item.ID] = true
		g.Nodes = append(g.Nodes, *item)
	}
	if len(g.Nodes) == 0 {
		return nil
	}

	for _, el := range payload.Edges {
		edge := graphEdge(el)
		if edge == nil || !known[edge.From] || !known[edge.To] {
			continue
		}
		if edge.HasWeight {
			g.Weighted = true
		}
		g.Edges = append(g.Edges, *edge)
	}
	return g
}

func graphNode(raw any, ordinal int) *Item {
	if label, ok := scalarLabel(raw); ok {
		return &Item{ID: label, Label: label}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := scalarLabel(m["id"])
	label, hasLabel := scalarLabel(m["label"])
	if !hasLabel {
		label, hasLabel = scalarLabel(m["value"])
	}
	if id == "" {
		if !hasLabel {
			return nil
		}
		id = label
	}
	if label == "" {
		label = id
	}
	if id == "" {
		id = "g" + strconv.Itoa(ordinal)
	}
	return &Item{ID: id, Label: label}
}

func graphEdge(raw any) *GraphEdge {
	switch v := raw.(type) {
	case []any:
		if len(v) < 2 {
			return nil
		}
		from, okFrom := scalarLabel(v[0])
		to, okTo := scalarLabel(v[1])
		if !okFrom || !okTo {
			return nil
		}
		edge := &GraphEdge{From: from, To: to}
		if len(v) > 2 {
			if w, ok := scalarFloat(v[2]); ok {
				edge.Weight = w
				edge.HasWeight = true
			}
		}
		return edge
	case map[string]any:
		from, okFrom := scalarLabel(v["from"])
		if !okFrom {
			from, okFrom = scalarLabel(v["source"])
		}
		to, okTo := scalarLabel(v["to"])
		if !okTo {
			to, okTo = scalarLabel(v["target"])
		}
		if !okFrom || !okTo {
			return nil
		}
		edge := &GraphEdge{From: from, To: to}
		if w, ok := scalarFloat(v["weight"]); ok {
			edge.Weight = w
			edge.HasWeight = true
		}
		return edge
	}
	return nil
}

type idAllocator struct {
	prefix string
	n      int
}

func (a *idAllocator) next() string {
	id := a.prefix + strconv.Itoa(a.n)
	a.n++
	return id
}

func scalarLabel(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	case fmt.Stringer:
		s := strings.TrimSpace(val.String())
		return s, s != ""
	}
	return "", false
}

func scalarFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

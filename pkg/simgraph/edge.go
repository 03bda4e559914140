package simgraph

import (
	"cmp"
	"slices"

	"github.com/matzehuels/catgraph/pkg/category"
)

// Edge is a canonical similarity link with Low < High.
type Edge struct {
	Low  category.ID `json:"low"`
	High category.ID `json:"high"`
}

// Canonical orders a and b into an Edge. It returns false when a == b,
// since a category is never similar to itself.
func Canonical(a, b category.ID) (Edge, bool) {
	switch {
	case a == b:
		return Edge{}, false
	case a < b:
		return Edge{Low: a, High: b}, true
	default:
		return Edge{Low: b, High: a}, true
	}
}

// Compare orders edges by Low, then High.
func Compare(a, b Edge) int {
	if c := cmp.Compare(a.Low, b.Low); c != 0 {
		return c
	}
	return cmp.Compare(a.High, b.High)
}

// EdgeSet is a set of canonical edges. The zero value is not usable; use
// NewEdgeSet.
type EdgeSet struct {
	edges map[Edge]struct{}
}

// NewEdgeSet creates an empty set with room for n edges.
func NewEdgeSet(n int) *EdgeSet {
	return &EdgeSet{edges: make(map[Edge]struct{}, n)}
}

// Add inserts the canonical form of (a, b). It reports whether the set
// changed; self pairs and already present edges leave it unchanged.
func (s *EdgeSet) Add(a, b category.ID) bool {
	e, ok := Canonical(a, b)
	if !ok {
		return false
	}
	if _, dup := s.edges[e]; dup {
		return false
	}
	s.edges[e] = struct{}{}
	return true
}

// Remove deletes the canonical form of (a, b) and reports whether it was present.
func (s *EdgeSet) Remove(a, b category.ID) bool {
	e, ok := Canonical(a, b)
	if !ok {
		return false
	}
	if _, present := s.edges[e]; !present {
		return false
	}
	delete(s.edges, e)
	return true
}

// Contains reports whether the link (a, b) is in the set, in either direction.
func (s *EdgeSet) Contains(a, b category.ID) bool {
	e, ok := Canonical(a, b)
	if !ok {
		return false
	}
	_, present := s.edges[e]
	return present
}

// Len returns the number of edges.
func (s *EdgeSet) Len() int { return len(s.edges) }

// Edges returns the edges sorted by (Low, High).
func (s *EdgeSet) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for e := range s.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, Compare)
	return out
}

// Normalize canonicalizes and deduplicates raw pairs, returning sorted edges.
func Normalize(pairs []category.Pair) []Edge {
	s := NewEdgeSet(len(pairs))
	for _, p := range pairs {
		s.Add(p.From, p.To)
	}
	return s.Edges()
}

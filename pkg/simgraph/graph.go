package simgraph

import (
	"slices"

	"github.com/matzehuels/catgraph/pkg/category"
)

// BuildStats counts input dropped while building a graph.
type BuildStats struct {
	SelfLoops    int `json:"self_loops"`
	Duplicates   int `json:"duplicates"`
	UnknownNodes int `json:"unknown_nodes"` // pairs naming an id outside the node set
}

// Dropped returns the total number of dropped pairs.
func (s BuildStats) Dropped() int { return s.SelfLoops + s.Duplicates + s.UnknownNodes }

// Graph is an immutable undirected graph over dense node indices.
// It is safe for concurrent reads.
type Graph struct {
	ids     []category.ID         // index -> id, ascending
	index   map[category.ID]int32 // id -> index
	offsets []int32               // neighbors of i are targets[offsets[i]:offsets[i+1]]
	targets []int32
	edges   int
}

// Build creates a graph over the known node ids from raw similarity pairs.
// Duplicate ids in nodeIDs are collapsed.
func Build(nodeIDs []category.ID, pairs []category.Pair) (*Graph, BuildStats) {
	ids := slices.Clone(nodeIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	index := make(map[category.ID]int32, len(ids))
	for i, id := range ids {
		index[id] = int32(i)
	}

	var stats BuildStats
	set := NewEdgeSet(len(pairs))
	for _, p := range pairs {
		if p.From == p.To {
			stats.SelfLoops++
			continue
		}
		_, okFrom := index[p.From]
		_, okTo := index[p.To]
		if !okFrom || !okTo {
			stats.UnknownNodes++
			continue
		}
		if !set.Add(p.From, p.To) {
			stats.Duplicates++
		}
	}

	edges := set.Edges()
	g := &Graph{
		ids:     ids,
		index:   index,
		offsets: make([]int32, len(ids)+1),
		targets: make([]int32, 2*len(edges)),
		edges:   len(edges),
	}

	for _, e := range edges {
		g.offsets[index[e.Low]+1]++
		g.offsets[index[e.High]+1]++
	}
	for i := 1; i < len(g.offsets); i++ {
		g.offsets[i] += g.offsets[i-1]
	}

	fill := slices.Clone(g.offsets[:len(ids)])
	for _, e := range edges {
		lo, hi := index[e.Low], index[e.High]
		g.targets[fill[lo]] = hi
		fill[lo]++
		g.targets[fill[hi]] = lo
		fill[hi]++
	}
	for i := range ids {
		slices.Sort(g.targets[g.offsets[i]:g.offsets[i+1]])
	}

	return g, stats
}

// FromSnapshot builds the graph for a store snapshot.
func FromSnapshot(s *category.Snapshot) (*Graph, BuildStats) {
	ids := make([]category.ID, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return Build(ids, s.Pairs)
}

// NodeCount returns the number of nodes, isolated ones included.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// ID returns the category id at dense index i.
func (g *Graph) ID(i int32) category.ID { return g.ids[i] }

// Index returns the dense index of id.
func (g *Graph) Index(id category.ID) (int32, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Neighbors returns the neighbor indices of i in ascending order.
// The returned slice must not be modified.
func (g *Graph) Neighbors(i int32) []int32 {
	return g.targets[g.offsets[i]:g.offsets[i+1]]
}

// Degree returns the number of neighbors of i.
func (g *Graph) Degree(i int32) int { return int(g.offsets[i+1] - g.offsets[i]) }

// IDs maps dense indices to category ids.
func (g *Graph) IDs(indices []int32) []category.ID {
	out := make([]category.ID, len(indices))
	for k, i := range indices {
		out[k] = g.ids[i]
	}
	return out
}

// Adjacent reports whether a and b are linked.
func (g *Graph) Adjacent(a, b category.ID) bool {
	ia, okA := g.index[a]
	ib, okB := g.index[b]
	if !okA || !okB {
		return false
	}
	_, found := slices.BinarySearch(g.Neighbors(ia), ib)
	return found
}

package analyze

import (
	"slices"

	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

// Component is a maximal connected set of dense node indices.
// Nodes are sorted ascending, so Nodes[0] is the component's smallest id.
type Component struct {
	Nodes []int32
}

// Size returns the number of nodes in the component.
func (c Component) Size() int { return len(c.Nodes) }

// First returns the smallest node index of the component.
func (c Component) First() int32 { return c.Nodes[0] }

// Components partitions every node of g into connected components, ordered
// by smallest node id. Runs in O(V + E).
func Components(g *simgraph.Graph) []Component {
	n := g.NodeCount()
	visited := make([]bool, n)
	queue := make([]int32, 0, 64)
	var comps []Component

	for start := int32(0); start < int32(n); start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			for _, nb := range g.Neighbors(queue[head]) {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		nodes := slices.Clone(queue)
		slices.Sort(nodes)
		comps = append(comps, Component{Nodes: nodes})
	}
	return comps
}

// ComponentInfo summarizes an island for reports.
type ComponentInfo struct {
	Size      int           `json:"size"`
	SampleIDs []category.ID `json:"sample_ids"`
}

// Summarize returns size and up to sampleSize smallest ids for each component.
func Summarize(g *simgraph.Graph, comps []Component, sampleSize int) []ComponentInfo {
	out := make([]ComponentInfo, len(comps))
	for i, c := range comps {
		k := min(sampleSize, c.Size())
		out[i] = ComponentInfo{
			Size:      c.Size(),
			SampleIDs: g.IDs(c.Nodes[:max(k, 0)]),
		}
	}
	return out
}

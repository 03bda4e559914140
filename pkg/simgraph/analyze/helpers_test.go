package analyze

import (
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

// graphOf builds a graph over ids 1..n from pairs.
func graphOf(n int, pairs ...category.Pair) *simgraph.Graph {
	ids := make([]category.ID, n)
	for i := range ids {
		ids[i] = category.ID(i + 1)
	}
	g, _ := simgraph.Build(ids, pairs)
	return g
}

func chainPairs(from, to category.ID) []category.Pair {
	var pairs []category.Pair
	for id := from; id < to; id++ {
		pairs = append(pairs, category.Pair{From: id, To: id + 1})
	}
	return pairs
}

// starAndChain is a star centered on 1 with the given number of leaves,
// followed by a chain of chainLen nodes named Snake_<k>.
func starAndChain(leaves, chainLen int) *category.Snapshot {
	snap := &category.Snapshot{}
	snap.Nodes = append(snap.Nodes, category.Node{ID: 1, Name: "Hub"})
	for i := 0; i < leaves; i++ {
		id := category.ID(i + 2)
		snap.Nodes = append(snap.Nodes, category.Node{ID: id, Name: fmt.Sprintf("Leaf_%d", i)})
		snap.Pairs = append(snap.Pairs, category.Pair{From: 1, To: id})
	}
	first := category.ID(leaves + 2)
	for k := 0; k < chainLen; k++ {
		snap.Nodes = append(snap.Nodes, category.Node{ID: first + category.ID(k), Name: fmt.Sprintf("Snake_%d", k)})
	}
	snap.Pairs = append(snap.Pairs, chainPairs(first, first+category.ID(chainLen-1))...)
	return snap
}

func randomSnapshot(seed uint64, n, m int) *category.Snapshot {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	snap := &category.Snapshot{}
	for i := 1; i <= n; i++ {
		snap.Nodes = append(snap.Nodes, category.Node{ID: category.ID(i), Name: fmt.Sprintf("N%d", i)})
	}
	for i := 0; i < m; i++ {
		snap.Pairs = append(snap.Pairs, category.Pair{
			From: category.ID(r.IntN(n) + 1),
			To:   category.ID(r.IntN(n) + 1),
		})
	}
	return snap
}

// eccentricity returns the largest BFS distance from src, by brute force.
func eccentricity(g *simgraph.Graph, src int32) int {
	dist := map[int32]int{src: 0}
	queue := []int32{src}
	best := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(u) {
			if _, ok := dist[v]; !ok {
				dist[v] = dist[u] + 1
				best = max(best, dist[v])
				queue = append(queue, v)
			}
		}
	}
	return best
}

package analyze

import (
	"slices"

	"github.com/matzehuels/catgraph/pkg/simgraph"
)

const unvisited = -1

// sweeper holds the BFS buffers of one worker. Buffers span the whole graph
// and are reset only at the entries a sweep touched, so a worker can reuse
// them across components without reallocating.
type sweeper struct {
	g      *simgraph.Graph
	dist   []int32
	parent []int32
	queue  []int32
}

func newSweeper(g *simgraph.Graph) *sweeper {
	n := g.NodeCount()
	s := &sweeper{
		g:      g,
		dist:   make([]int32, n),
		parent: make([]int32, n),
		queue:  make([]int32, 0, 64),
	}
	for i := range s.dist {
		s.dist[i] = unvisited
	}
	return s
}

// farthest runs BFS from src and returns the farthest node and its distance.
// Among nodes at maximum distance the smallest index wins. Distances and
// parent pointers stay in the buffers until reset is called.
func (s *sweeper) farthest(src int32) (int32, int32) {
	s.queue = append(s.queue[:0], src)
	s.dist[src] = 0
	s.parent[src] = unvisited

	best, bestDist := src, int32(0)
	for head := 0; head < len(s.queue); head++ {
		u := s.queue[head]
		du := s.dist[u]
		if du > bestDist || (du == bestDist && u < best) {
			best, bestDist = u, du
		}
		for _, v := range s.g.Neighbors(u) {
			if s.dist[v] == unvisited {
				s.dist[v] = du + 1
				s.parent[v] = u
				s.queue = append(s.queue, v)
			}
		}
	}
	return best, bestDist
}

// path walks parent pointers back from dst to the last BFS source and
// returns the path source-first.
func (s *sweeper) path(dst int32) []int32 {
	p := make([]int32, 0, s.dist[dst]+1)
	for v := dst; v != unvisited; v = s.parent[v] {
		p = append(p, v)
	}
	slices.Reverse(p)
	return p
}

// reset clears the entries touched by the last sweep.
func (s *sweeper) reset() {
	for _, v := range s.queue {
		s.dist[v] = unvisited
	}
}

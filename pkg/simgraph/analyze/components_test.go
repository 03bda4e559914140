package analyze

import (
	"slices"
	"testing"

	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

func TestComponents_Empty(t *testing.T) {
	g, _ := simgraph.Build(nil, nil)
	if comps := Components(g); len(comps) != 0 {
		t.Errorf("Components(empty) = %v, want none", comps)
	}
}

func TestComponents_OrderedBySmallestID(t *testing.T) {
	// {1,5} {2,3,4} {6}
	g := graphOf(6,
		category.Pair{From: 5, To: 1},
		category.Pair{From: 4, To: 3},
		category.Pair{From: 2, To: 3},
	)
	comps := Components(g)

	want := [][]category.ID{{1, 5}, {2, 3, 4}, {6}}
	if len(comps) != len(want) {
		t.Fatalf("got %d components, want %d", len(comps), len(want))
	}
	for i, c := range comps {
		if got := g.IDs(c.Nodes); !slices.Equal(got, want[i]) {
			t.Errorf("component %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestComponents_Singletons(t *testing.T) {
	g := graphOf(5)
	comps := Components(g)
	if len(comps) != 5 {
		t.Fatalf("got %d components, want 5", len(comps))
	}
	for i, c := range comps {
		if c.Size() != 1 || g.ID(c.First()) != category.ID(i+1) {
			t.Errorf("component %d = %v", i, g.IDs(c.Nodes))
		}
	}
}

func TestComponents_Partition(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 42} {
		g, _ := simgraph.FromSnapshot(randomSnapshot(seed, 500, 350))
		comps := Components(g)

		owner := make([]int, g.NodeCount())
		for i := range owner {
			owner[i] = -1
		}
		total := 0
		for ci, c := range comps {
			total += c.Size()
			for _, v := range c.Nodes {
				if owner[v] != -1 {
					t.Fatalf("seed %d: node %d in components %d and %d", seed, g.ID(v), owner[v], ci)
				}
				owner[v] = ci
			}
		}
		if total != g.NodeCount() {
			t.Fatalf("seed %d: components cover %d nodes, want %d", seed, total, g.NodeCount())
		}
		for v := int32(0); v < int32(g.NodeCount()); v++ {
			for _, nb := range g.Neighbors(v) {
				if owner[v] != owner[nb] {
					t.Fatalf("seed %d: edge %d-%d crosses components", seed, g.ID(v), g.ID(nb))
				}
			}
		}
		for i := 1; i < len(comps); i++ {
			if comps[i-1].First() >= comps[i].First() {
				t.Fatalf("seed %d: components not ordered by smallest id", seed)
			}
		}
	}
}

func TestComponents_LongChainNoRecursion(t *testing.T) {
	const n = 200_000
	g := graphOf(n, chainPairs(1, n)...)
	comps := Components(g)
	if len(comps) != 1 || comps[0].Size() != n {
		t.Fatalf("want one component of %d nodes, got %d components", n, len(comps))
	}
}

func TestSummarize(t *testing.T) {
	g := graphOf(9, chainPairs(1, 7)...)
	comps := Components(g) // {1..7} {8} {9}

	infos := Summarize(g, comps, 3)
	if len(infos) != 3 {
		t.Fatalf("got %d infos, want 3", len(infos))
	}
	if infos[0].Size != 7 || !slices.Equal(infos[0].SampleIDs, []category.ID{1, 2, 3}) {
		t.Errorf("infos[0] = %+v", infos[0])
	}
	if infos[2].Size != 1 || !slices.Equal(infos[2].SampleIDs, []category.ID{9}) {
		t.Errorf("infos[2] = %+v", infos[2])
	}

	none := Summarize(g, comps, -1)
	if len(none[0].SampleIDs) != 0 {
		t.Errorf("negative sample size should list no ids, got %v", none[0].SampleIDs)
	}
}

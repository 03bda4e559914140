package analyze

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

func TestDoubleSweep(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		pairs    []category.Pair
		wantHops int
		wantPath []category.ID
	}{
		{"singleton", 1, nil, 0, nil},
		{"pair", 2, []category.Pair{{From: 1, To: 2}}, 1, []category.ID{2, 1}},
		{"chain of four", 4, chainPairs(1, 4), 3, []category.ID{4, 3, 2, 1}},
		{"chain given backwards", 4, []category.Pair{{From: 4, To: 3}, {From: 3, To: 2}, {From: 2, To: 1}}, 3, []category.ID{4, 3, 2, 1}},
		{"triangle", 3, []category.Pair{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1}}, 1, []category.ID{2, 1}},
		{"hexagon", 6, append(chainPairs(1, 6), category.Pair{From: 6, To: 1}), 3, []category.ID{4, 3, 2, 1}},
		{"star", 5, []category.Pair{{From: 1, To: 2}, {From: 1, To: 3}, {From: 1, To: 4}, {From: 1, To: 5}}, 2, []category.ID{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graphOf(tt.n, tt.pairs...)
			comps := Components(g)
			c := DoubleSweep(g, comps[0])

			if c.Hops != tt.wantHops {
				t.Errorf("Hops = %d, want %d", c.Hops, tt.wantHops)
			}
			var got []category.ID
			if c.Path != nil {
				got = g.IDs(c.Path)
			}
			if !slices.Equal(got, tt.wantPath) {
				t.Errorf("Path = %v, want %v", got, tt.wantPath)
			}
		})
	}
}

func TestDoubleSweep_CompleteGraph(t *testing.T) {
	const n = 30
	var pairs []category.Pair
	for a := category.ID(1); a <= n; a++ {
		for b := a + 1; b <= n; b++ {
			pairs = append(pairs, category.Pair{From: a, To: b})
		}
	}
	g := graphOf(n, pairs...)
	c := DoubleSweep(g, Components(g)[0])
	if c.Hops != 1 || len(c.Path) != 2 {
		t.Errorf("complete graph: Hops = %d, Path = %v, want a single hop", c.Hops, c.Path)
	}
}

// On trees the double sweep is exact.
func TestDoubleSweep_ExactOnTrees(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		r := rand.New(rand.NewPCG(seed, 7))
		n := 2 + r.IntN(150)
		var pairs []category.Pair
		for id := 2; id <= n; id++ {
			pairs = append(pairs, category.Pair{From: category.ID(id), To: category.ID(1 + r.IntN(id-1))})
		}
		g := graphOf(n, pairs...)

		want := 0
		for v := int32(0); v < int32(n); v++ {
			want = max(want, eccentricity(g, v))
		}
		if got := DoubleSweep(g, Components(g)[0]).Hops; got != want {
			t.Errorf("seed %d: Hops = %d, want exact diameter %d", seed, got, want)
		}
	}
}

// On graphs with cycles the estimate is a valid path and never exceeds the
// true diameter.
func TestDoubleSweep_LowerBoundWithValidPath(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g, _ := simgraph.FromSnapshot(randomSnapshot(seed, 120, 200))
		for _, comp := range Components(g) {
			c := DoubleSweep(g, comp)
			if comp.Size() < 2 {
				continue
			}
			diam := 0
			for _, v := range comp.Nodes {
				diam = max(diam, eccentricity(g, v))
			}
			if c.Hops > diam {
				t.Fatalf("seed %d: Hops %d exceeds diameter %d", seed, c.Hops, diam)
			}
			if len(c.Path) != c.Hops+1 {
				t.Fatalf("seed %d: path of %d nodes for %d hops", seed, len(c.Path), c.Hops)
			}
			seen := map[int32]bool{}
			for i, v := range c.Path {
				if seen[v] {
					t.Fatalf("seed %d: path repeats node %d", seed, g.ID(v))
				}
				seen[v] = true
				if i > 0 && !g.Adjacent(g.ID(c.Path[i-1]), g.ID(v)) {
					t.Fatalf("seed %d: path step %d-%d is not an edge", seed, g.ID(c.Path[i-1]), g.ID(v))
				}
			}
		}
	}
}

func TestEstimate_SmallChainBeatsLargeStar(t *testing.T) {
	g, _ := simgraph.FromSnapshot(starAndChain(10_000, 100))
	comps := Components(g)
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}

	best, err := Estimate(context.Background(), g, comps, EstimateOptions{Workers: 4})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if best == nil || best.Hops != 99 {
		t.Fatalf("best = %+v, want 99 hops", best)
	}
	if best.Component != 1 {
		t.Errorf("winning component = %d, want the chain (1)", best.Component)
	}
	if first := g.ID(best.Path[0]); first < 10_002 {
		t.Errorf("path starts at %d, want a chain node", first)
	}
}

func TestEstimate_TieKeepsEarlierComponent(t *testing.T) {
	// two chains of equal length
	pairs := append(chainPairs(1, 3), chainPairs(4, 6)...)
	g := graphOf(6, pairs...)

	for _, workers := range []int{1, 2, 8} {
		best, err := Estimate(context.Background(), g, Components(g), EstimateOptions{Workers: workers})
		if err != nil {
			t.Fatalf("Estimate: %v", err)
		}
		if best.Component != 0 || best.Hops != 2 {
			t.Errorf("workers=%d: best = %+v, want component 0 with 2 hops", workers, best)
		}
	}
}

func TestEstimate_NoPath(t *testing.T) {
	g := graphOf(4)
	best, err := Estimate(context.Background(), g, Components(g), EstimateOptions{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if best != nil {
		t.Errorf("best = %+v, want nil", best)
	}
}

func TestEstimate_DeterministicAcrossWorkers(t *testing.T) {
	g, _ := simgraph.FromSnapshot(randomSnapshot(99, 3000, 2600))
	comps := Components(g)

	ref, err := Estimate(context.Background(), g, comps, EstimateOptions{Workers: 1})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for _, workers := range []int{2, 3, 8, 64} {
		for run := 0; run < 3; run++ {
			got, err := Estimate(context.Background(), g, comps, EstimateOptions{Workers: workers})
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if got.Component != ref.Component || got.Hops != ref.Hops || !slices.Equal(got.Path, ref.Path) {
				t.Fatalf("workers=%d: got %+v, want %+v", workers, got, ref)
			}
		}
	}
}

func TestEstimate_Canceled(t *testing.T) {
	g := graphOf(4, chainPairs(1, 4)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Estimate(ctx, g, Components(g), EstimateOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEstimate_CancelMidRun(t *testing.T) {
	var pairs []category.Pair
	for k := category.ID(0); k < 200; k++ {
		pairs = append(pairs, category.Pair{From: 2*k + 1, To: 2*k + 2})
	}
	g := graphOf(400, pairs...)
	comps := Components(g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var seen atomic.Int32
	_, err := Estimate(ctx, g, comps, EstimateOptions{
		Workers: 1,
		OnComponent: func(Candidate, int) {
			if seen.Add(1) == 10 {
				cancel()
			}
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := seen.Load(); n != 10 {
		t.Errorf("evaluated %d components after cancel, want 10", n)
	}
}

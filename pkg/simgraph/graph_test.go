package simgraph

import (
	"testing"

	"github.com/matzehuels/catgraph/pkg/category"
)

func TestBuild_Isolated(t *testing.T) {
	g, stats := Build([]category.ID{3, 1, 2}, nil)
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	for i := int32(0); i < 3; i++ {
		if g.Degree(i) != 0 {
			t.Errorf("Degree(%d) = %d, want 0", i, g.Degree(i))
		}
		if g.ID(i) != category.ID(i+1) {
			t.Errorf("ID(%d) = %d, want %d", i, g.ID(i), i+1)
		}
	}
	if stats.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", stats.Dropped())
	}
}

func TestBuild_NormalizesInput(t *testing.T) {
	ids := []category.ID{10, 20, 30, 40, 40}
	pairs := []category.Pair{
		{From: 10, To: 20},
		{From: 20, To: 10}, // reverse duplicate
		{From: 10, To: 20}, // exact duplicate
		{From: 30, To: 30}, // self
		{From: 30, To: 99}, // unknown
		{From: 40, To: 30},
	}
	g, stats := Build(ids, pairs)

	if g.NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if stats.SelfLoops != 1 || stats.Duplicates != 2 || stats.UnknownNodes != 1 {
		t.Errorf("stats = %+v, want 1 self loop, 2 duplicates, 1 unknown", stats)
	}
	if !g.Adjacent(20, 10) || !g.Adjacent(30, 40) {
		t.Error("expected 10-20 and 30-40 to be adjacent")
	}
	if g.Adjacent(10, 30) || g.Adjacent(30, 99) {
		t.Error("unexpected adjacency")
	}
}

func TestBuild_NeighborsSortedAndSymmetric(t *testing.T) {
	ids := []category.ID{1, 2, 3, 4, 5}
	pairs := []category.Pair{{From: 5, To: 3}, {From: 3, To: 1}, {From: 4, To: 3}, {From: 2, To: 3}}
	g, _ := Build(ids, pairs)

	i3, _ := g.Index(3)
	got := g.IDs(g.Neighbors(i3))
	want := []category.ID{1, 2, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(3) = %v, want %v", got, want)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("Neighbors(3) = %v, want %v", got, want)
			break
		}
	}

	for i := int32(0); i < int32(g.NodeCount()); i++ {
		for _, j := range g.Neighbors(i) {
			if !g.Adjacent(g.ID(j), g.ID(i)) {
				t.Errorf("edge %d-%d not symmetric", g.ID(i), g.ID(j))
			}
		}
	}
}

func TestFromSnapshot(t *testing.T) {
	s := &category.Snapshot{
		Nodes: []category.Node{{ID: 1}, {ID: 2}, {ID: 3}},
		Pairs: []category.Pair{{From: 1, To: 2}},
	}
	g, _ := FromSnapshot(s)
	if g.NodeCount() != 3 || g.EdgeCount() != 1 {
		t.Errorf("FromSnapshot() = %d nodes %d edges, want 3 nodes 1 edge", g.NodeCount(), g.EdgeCount())
	}
}

package category

import "testing"

func TestNodeParent(t *testing.T) {
	root := Node{ID: 1, Name: "root"}
	if root.HasParent() {
		t.Error("root.HasParent() = true, want false")
	}
	if root.Parent() != 0 {
		t.Errorf("root.Parent() = %d, want 0", root.Parent())
	}

	child := Node{ID: 2, Name: "child", ParentID: Ptr(1)}
	if !child.HasParent() || child.Parent() != 1 {
		t.Errorf("child.Parent() = %d, want 1", child.Parent())
	}
}

func TestSnapshotHashOrderIndependent(t *testing.T) {
	a := Snapshot{
		Nodes: []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
		Pairs: []Pair{{1, 2}, {2, 3}},
	}
	b := Snapshot{
		Nodes: []Node{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		Pairs: []Pair{{3, 2}, {2, 1}, {1, 2}},
	}
	if a.Hash() != b.Hash() {
		t.Error("Hash() differs for reordered, reversed and duplicated pairs")
	}

	c := Snapshot{Nodes: a.Nodes, Pairs: []Pair{{1, 3}}}
	if a.Hash() == c.Hash() {
		t.Error("Hash() equal for different link sets")
	}

	d := Snapshot{Nodes: []Node{{ID: 1, Name: "renamed"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}, Pairs: a.Pairs}
	if a.Hash() == d.Hash() {
		t.Error("Hash() equal after rename")
	}
}

func TestSnapshotIDsAndNames(t *testing.T) {
	s := Snapshot{Nodes: []Node{{ID: 5, Name: "e"}, {ID: 2, Name: "b"}}}
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Errorf("IDs() = %v, want [2 5]", ids)
	}
	if got := s.Names()[5]; got != "e" {
		t.Errorf("Names()[5] = %q, want %q", got, "e")
	}
}

func TestSnapshotHashIgnoresSelfPairs(t *testing.T) {
	nodes := []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	plain := Snapshot{Nodes: nodes, Pairs: []Pair{{1, 2}}}
	looped := Snapshot{Nodes: nodes, Pairs: []Pair{{1, 2}, {1, 1}, {2, 2}}}
	if plain.Hash() != looped.Hash() {
		t.Error("Hash() differs when only self pairs were added")
	}
}

func TestTreeHash(t *testing.T) {
	base := []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	reordered := []Node{base[1], base[0]}
	if TreeHash(base) != TreeHash(reordered) {
		t.Error("TreeHash() depends on row order")
	}

	tests := []struct {
		name  string
		nodes []Node
	}{
		{"moved", []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b", ParentID: Ptr(1)}}},
		{"self parent", []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b", ParentID: Ptr(2)}}},
		{"description", []Node{{ID: 1, Name: "a", Description: "first"}, {ID: 2, Name: "b"}}},
		{"image", []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "b", Image: "b.png"}}},
		{"renamed", []Node{{ID: 1, Name: "a"}, {ID: 2, Name: "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if TreeHash(tt.nodes) == TreeHash(base) {
				t.Error("TreeHash() unchanged")
			}
		})
	}
}

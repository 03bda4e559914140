// Package category defines the category records shared by the store, the
// hierarchy assembler and the similarity analysis.
//
// A [Node] is owned by the storage layer. Every analysis run works on a
// [Snapshot]: a point-in-time copy of all nodes and all raw similarity pairs,
// read once from the store and discarded when the run ends.
package category

import (
	"cmp"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
)

// ID identifies a category. IDs are positive and stable.
type ID = int64

// Node is a category record.
//
// ParentID is nil for roots. The store validates on write that a node never
// becomes its own ancestor, but readers must not rely on that.
type Node struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ParentID    *ID    `json:"parent_id"`
}

// HasParent reports whether the node declares a parent.
func (n Node) HasParent() bool { return n.ParentID != nil }

// Parent returns the declared parent id, or 0 when the node is a root.
func (n Node) Parent() ID {
	if n.ParentID == nil {
		return 0
	}
	return *n.ParentID
}

// Ptr returns a pointer to id. Useful for ParentID literals.
func Ptr(id ID) *ID { return &id }

// Pair is a raw similarity link as recorded by a source. Direction carries
// no meaning and the same logical link may appear more than once.
type Pair struct {
	From ID `json:"from"`
	To   ID `json:"to"`
}

// Snapshot is the full read of the store used for one analysis run.
type Snapshot struct {
	Nodes []Node
	Pairs []Pair
}

// Names returns an id -> name lookup for the snapshot's nodes.
func (s *Snapshot) Names() map[ID]string {
	names := make(map[ID]string, len(s.Nodes))
	for _, n := range s.Nodes {
		names[n.ID] = n.Name
	}
	return names
}

// IDs returns all node ids in ascending order.
func (s *Snapshot) IDs() []ID {
	ids := make([]ID, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return ids
}

// Hash returns a content hash of the snapshot that is independent of row
// order and of pair direction, so two reads of an unchanged store hash equal.
// Only fields that influence analysis results (ids, names, links) are hashed,
// and self pairs are skipped because the similarity graph drops them.
func (s *Snapshot) Hash() string {
	nodes := slices.Clone(s.Nodes)
	slices.SortFunc(nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })

	pairs := make([][2]ID, 0, len(s.Pairs))
	for _, p := range s.Pairs {
		lo, hi := p.From, p.To
		if lo == hi {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		pairs = append(pairs, [2]ID{lo, hi})
	}
	slices.SortFunc(pairs, func(a, b [2]ID) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	pairs = slices.Compact(pairs)

	h := sha256.New()
	var buf [8]byte
	for _, n := range nodes {
		binary.BigEndian.PutUint64(buf[:], uint64(n.ID))
		h.Write(buf[:])
		h.Write([]byte(n.Name))
		h.Write([]byte{0})
	}
	h.Write([]byte{0xff})
	for _, p := range pairs {
		binary.BigEndian.PutUint64(buf[:], uint64(p[0]))
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], uint64(p[1]))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TreeHash returns a content hash of nodes covering every field the
// assembled tree carries, parents included. It is independent of row order.
func TreeHash(nodes []Node) string {
	nodes = slices.Clone(nodes)
	slices.SortFunc(nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })

	h := sha256.New()
	var buf [8]byte
	for _, n := range nodes {
		binary.BigEndian.PutUint64(buf[:], uint64(n.ID))
		h.Write(buf[:])
		if n.ParentID != nil {
			h.Write([]byte{1})
			binary.BigEndian.PutUint64(buf[:], uint64(*n.ParentID))
			h.Write(buf[:])
		} else {
			h.Write([]byte{0})
		}
		for _, f := range [...]string{n.Name, n.Description, n.Image} {
			h.Write([]byte(f))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

package io

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/catgraph/pkg/category"
)

type snapshot struct {
	Nodes []node           `json:"nodes"`
	Edges [][2]category.ID `json:"edges"`
}

// node mirrors category.Node so the file format does not change when the
// record grows fields.
type node struct {
	ID          category.ID  `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	ParentID    *category.ID `json:"parent_id"`
}

// WriteJSON encodes a snapshot as JSON and writes it to w.
// Nodes are sorted by id and edges are canonical (low, high) pairs.
// This format can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(snap *category.Snapshot, w io.Writer) error {
	out := snapshot{
		Nodes: make([]node, len(snap.Nodes)),
		Edges: canonicalEdges(snap),
	}
	for i, n := range snap.Nodes {
		out.Nodes[i] = node(n)
	}
	slices.SortFunc(out.Nodes, func(a, b node) int { return cmp.Compare(a.ID, b.ID) })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a snapshot to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(snap *category.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(snap, f)
}

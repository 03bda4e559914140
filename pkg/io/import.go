package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

// ReadJSON decodes a JSON snapshot from r.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or invalid
//   - A node has a non-positive or duplicate id
//   - A node has an invalid name
//
// Errors are wrapped with context describing which node caused the problem.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*category.Snapshot, error) {
	var data snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrCodeInvalidInput, err, "decode snapshot")
	}

	snap := &category.Snapshot{
		Nodes: make([]category.Node, 0, len(data.Nodes)),
		Pairs: make([]category.Pair, 0, len(data.Edges)),
	}
	seen := make(map[category.ID]bool, len(data.Nodes))
	for i, n := range data.Nodes {
		if err := cgerrors.ValidateID(n.ID); err != nil {
			return nil, fmt.Errorf("node #%d: %w", i, err)
		}
		if seen[n.ID] {
			return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "node %d: duplicate id", n.ID)
		}
		seen[n.ID] = true
		if err := cgerrors.ValidateName(n.Name); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		snap.Nodes = append(snap.Nodes, category.Node(n))
	}
	for _, e := range data.Edges {
		snap.Pairs = append(snap.Pairs, category.Pair{From: e[0], To: e[1]})
	}
	return snap, nil
}

// ImportJSON reads a JSON file at path and returns the decoded snapshot.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. A missing file is reported as FILE_NOT_FOUND.
func ImportJSON(path string) (*category.Snapshot, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, cgerrors.Wrap(cgerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// canonicalEdges returns the sorted, deduplicated edge list of snap.
func canonicalEdges(snap *category.Snapshot) [][2]category.ID {
	edges := simgraph.Normalize(snap.Pairs)
	out := make([][2]category.ID, len(edges))
	for i, e := range edges {
		out[i] = [2]category.ID{e.Low, e.High}
	}
	return out
}

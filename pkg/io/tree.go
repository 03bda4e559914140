package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/catgraph/pkg/hierarchy"
)

// WriteTree encodes the forest as indented JSON. An empty forest is written
// as [] rather than null.
func WriteTree(roots []*hierarchy.TreeNode, w io.Writer) error {
	if roots == nil {
		roots = []*hierarchy.TreeNode{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(roots); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteOutline writes one line per category, indented two spaces per level:
//
//	Animals (#1)
//	  Cats (#2)
//	    Lions (#3)
//
// maxDepth limits the levels printed; zero or less prints everything.
func WriteOutline(roots []*hierarchy.TreeNode, w io.Writer, maxDepth int) error {
	bw := bufio.NewWriter(w)
	hierarchy.Walk(roots, func(n *hierarchy.TreeNode, depth int) bool {
		fmt.Fprintf(bw, "%s%s (#%d)\n", strings.Repeat("  ", depth), n.Name, n.ID)
		return maxDepth <= 0 || depth+1 < maxDepth
	})
	return bw.Flush()
}

package hierarchy

import (
	"slices"

	"github.com/matzehuels/catgraph/pkg/category"
)

// TreeNode is a category with its nested children.
// Children is never nil so that it serializes as [] rather than null.
type TreeNode struct {
	ID          category.ID  `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	ParentID    *category.ID `json:"parent_id"`
	Children    []*TreeNode  `json:"children"`

	parent *TreeNode
}

// Stats counts the defensive fallbacks taken while assembling a forest.
type Stats struct {
	Rows         int `json:"rows"`
	Roots        int `json:"roots"`
	Orphans      int `json:"orphans"`       // parent unknown or self
	CyclesBroken int `json:"cycles_broken"` // loop members promoted to roots
}

// Build assembles rows into an ordered forest. Roots and children keep the
// relative order of the input rows.
func Build(rows []category.Node) []*TreeNode {
	roots, _ := BuildWithStats(rows)
	return roots
}

// BuildWithStats is Build that also reports how many fallbacks were taken.
func BuildWithStats(rows []category.Node) ([]*TreeNode, Stats) {
	stats := Stats{Rows: len(rows)}
	if len(rows) == 0 {
		return []*TreeNode{}, stats
	}

	nodes := make([]*TreeNode, len(rows))
	byID := make(map[category.ID]*TreeNode, len(rows))
	for i, r := range rows {
		n := &TreeNode{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Image:       r.Image,
			ParentID:    r.ParentID,
			Children:    []*TreeNode{},
		}
		nodes[i] = n
		// Duplicate ids keep the first row as the attachment point.
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = n
		}
	}

	roots := make([]*TreeNode, 0)
	for i, r := range rows {
		n := nodes[i]
		if r.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := byID[*r.ParentID]
		if !ok || *r.ParentID == r.ID || parent == n {
			stats.Orphans++
			roots = append(roots, n)
			continue
		}
		n.parent = parent
		parent.Children = append(parent.Children, n)
	}

	reached := make(map[*TreeNode]bool, len(nodes))
	markSubtrees(roots, reached)

	if len(reached) < len(nodes) {
		for _, n := range nodes {
			if reached[n] {
				continue
			}
			member := loopMember(n, reached)
			detach(member)
			roots = append(roots, member)
			markSubtrees([]*TreeNode{member}, reached)
			stats.CyclesBroken++
		}
	}

	stats.Roots = len(roots)
	return roots, stats
}

// loopMember follows parent links from an unreached node until a node
// repeats. The repeated node lies on the loop that cuts n off from the roots.
func loopMember(n *TreeNode, reached map[*TreeNode]bool) *TreeNode {
	seen := make(map[*TreeNode]bool)
	cur := n
	for !seen[cur] {
		seen[cur] = true
		if cur.parent == nil || reached[cur.parent] {
			return cur
		}
		cur = cur.parent
	}
	return cur
}

func detach(n *TreeNode) {
	if n.parent == nil {
		return
	}
	p := n.parent
	p.Children = slices.DeleteFunc(p.Children, func(c *TreeNode) bool { return c == n })
	n.parent = nil
}

func markSubtrees(roots []*TreeNode, reached map[*TreeNode]bool) {
	stack := slices.Clone(roots)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n] {
			continue
		}
		reached[n] = true
		stack = append(stack, n.Children...)
	}
}

// Walk visits every node of the forest in pre-order, passing the node's
// depth (roots are depth 0). Children are visited in order. Returning false
// from fn skips the node's subtree.
func Walk(roots []*TreeNode, fn func(n *TreeNode, depth int) bool) {
	type frame struct {
		node  *TreeNode
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Count returns the number of nodes in the forest.
func Count(roots []*TreeNode) int {
	n := 0
	Walk(roots, func(*TreeNode, int) bool {
		n++
		return true
	})
	return n
}

// Depth returns the number of levels in the forest (0 when empty).
func Depth(roots []*TreeNode) int {
	depth := 0
	Walk(roots, func(_ *TreeNode, d int) bool {
		depth = max(depth, d+1)
		return true
	})
	return depth
}

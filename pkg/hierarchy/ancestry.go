package hierarchy

import "github.com/matzehuels/catgraph/pkg/category"

// ParentFunc returns the parent of id, or false when id is a root or unknown.
type ParentFunc func(id category.ID) (category.ID, bool)

// WouldCycle reports whether giving id the parent newParent would make id
// its own ancestor. It walks newParent's ancestor chain iteratively and
// stops on any loop already present in the data.
func WouldCycle(parentOf ParentFunc, id, newParent category.ID) bool {
	if id == newParent {
		return true
	}
	seen := map[category.ID]bool{}
	cur := newParent
	for !seen[cur] {
		seen[cur] = true
		p, ok := parentOf(cur)
		if !ok {
			return false
		}
		if p == id {
			return true
		}
		cur = p
	}
	return false
}

// ParentsOf builds a ParentFunc over a row set.
func ParentsOf(rows []category.Node) ParentFunc {
	parents := make(map[category.ID]category.ID, len(rows))
	for _, r := range rows {
		if r.ParentID != nil {
			parents[r.ID] = *r.ParentID
		}
	}
	return func(id category.ID) (category.ID, bool) {
		p, ok := parents[id]
		return p, ok
	}
}

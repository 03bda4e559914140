// Package hierarchy assembles the category forest from flat parent-pointer
// rows.
//
// # Assembly
//
// [Build] materializes one [TreeNode] per input row and an id -> node map,
// then makes a single pass over the rows: a row without a parent becomes a
// root, a row whose parent is known is appended to that parent's children,
// and a row whose parent is unknown or is the row itself becomes an orphan
// root. No recursion is involved, so hierarchy depth is unbounded.
//
// Parent chains that loop (A -> B -> A) cannot be expressed through the
// store's write path, but a snapshot may still contain them. After the pass,
// nodes not reachable from a root are exactly the members of such loops and
// their descendants; for each loop one member is detached from its parent
// and promoted to a root. Every input row therefore appears exactly once in
// the returned forest, and no node is its own descendant.
//
// # Moves
//
// [WouldCycle] answers "would re-parenting id under parent create a loop"
// with an iterative ancestor walk, and is used by the store before
// committing a move.
//
// # Traversal
//
// [Walk] visits a forest in pre-order with an explicit stack.
package hierarchy

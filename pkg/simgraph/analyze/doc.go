// Package analyze partitions the similarity graph into islands and finds the
// deepest rabbit hole: the longest shortest path across all islands.
//
// # Islands
//
// [Components] walks the graph with an explicit queue, never the call stack.
// Nodes are visited in ascending id order, so components come out ordered by
// their smallest id and the partition is reproducible for a fixed snapshot.
//
// # Rabbit Holes
//
// [DoubleSweep] estimates one component's diameter in two breadth-first
// searches: from the component's smallest id to its farthest node u, then
// from u to its farthest node v. The u..v path recovered from BFS parent
// pointers is the candidate. Farthest-node ties go to the smallest id.
//
// The estimate is exact on tree-shaped components. On components with
// cycles it is a lower bound on the true diameter. Both sweeps are
// O(V + E), against O(V * E) for all-pairs search, which is what keeps the
// analysis linear at 10^5 edges.
//
// [Estimate] evaluates every component of size two or more. Node count says
// nothing about path length (a 10 000 leaf star has diameter 2, a 100 node
// chain has diameter 99), so no component is skipped for being small.
// Components are evaluated by a bounded worker pool; each worker owns its
// BFS buffers and writes into its own result slot, and the winner is picked
// by a sequential reduction afterwards: strictly greater hop length wins,
// ties go to the earlier component. Cancellation is checked between
// components.
//
// # Reports
//
// [Analyze] runs the whole chain on a snapshot and returns a [Report] with the
// island count, a per-island sample and either the winning path with display
// names or nil when no island has a path.
package analyze

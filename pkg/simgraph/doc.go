// Package simgraph builds the undirected similarity graph over categories.
//
// # Canonical Edges
//
// A similarity link is an unordered pair. [Canonical] orders a pair as
// (low, high) and rejects self pairs, so (a, b) and (b, a) map to the same
// [Edge]. [EdgeSet] is a set keyed by canonical edge: adding a link twice,
// or in either direction, stores it once. The store's bulk ingestion and the
// graph builder both normalize through it.
//
// # Graph Layout
//
// [Graph] is an arena: every known category id gets a dense int32 index in
// ascending id order, and adjacency is stored in compressed sparse row form
// (one offsets slice, one targets slice). Traversal buffers in the analyze
// subpackage are plain slices indexed by the dense index. Because indices
// follow id order, "smallest index" and "smallest id" are the same tie-break.
//
// Every known id has an entry, including ids without links, which later
// form singleton components.
//
// # Tolerated Input
//
// [Build] never fails. Self pairs, repeated pairs and pairs naming an id
// outside the known node set are dropped and counted in [BuildStats].
//
// [analyze]: github.com/matzehuels/catgraph/pkg/simgraph/analyze
package simgraph

// Package io provides JSON import and export for category snapshots and
// text output for category trees.
//
// # Overview
//
// A snapshot file carries every category and every similarity link, so a
// database can be moved between stores or checked into a fixture:
//
//	{
//	  "nodes": [
//	    {"id": 1, "name": "Animals", "parent_id": null},
//	    {"id": 2, "name": "Cats", "parent_id": 1},
//	    {"id": 3, "name": "Lions", "parent_id": 2}
//	  ],
//	  "edges": [[2, 3]]
//	}
//
// # Node Fields
//
// Required:
//   - id: positive integer, unique within the file
//   - name: display name
//
// Optional:
//   - description, image: free text
//   - parent_id: id of the parent category, null or absent for roots
//
// # Edges
//
// Each edge is a two-element array of category ids. Direction and
// duplicates carry no meaning; [WriteJSON] always emits canonical
// (low, high) pairs, sorted and deduplicated, and drops self pairs.
// [ReadJSON] keeps edges as written and leaves normalization to the
// store and the graph builder.
//
// # Import
//
// Use [ImportJSON] to read a snapshot from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	snap, err := io.ImportJSON("categories.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// Use [ExportJSON] to write a snapshot to a file, or [WriteJSON] to write to
// any io.Writer. Export followed by import yields an equal snapshot, up to
// edge normalization.
//
// # Trees
//
// [WriteTree] writes the assembled forest as nested JSON and [WriteOutline]
// as an indented outline. WriteOutline walks the forest iteratively and
// stays safe on arbitrarily deep hierarchies.
package io

package io

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/hierarchy"
)

func sample() *category.Snapshot {
	return &category.Snapshot{
		Nodes: []category.Node{
			{ID: 3, Name: "Lions", ParentID: category.Ptr(2)},
			{ID: 1, Name: "Animals", Description: "all of them"},
			{ID: 2, Name: "Cats", Image: "cats.png", ParentID: category.Ptr(1)},
		},
		Pairs: []category.Pair{{From: 3, To: 2}, {From: 2, To: 3}, {From: 1, To: 1}, {From: 1, To: 3}},
	}
}

func TestWriteJSON_Canonical(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sample(), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	wantIDs := []category.ID{1, 2, 3}
	for i, n := range got.Nodes {
		if n.ID != wantIDs[i] {
			t.Fatalf("node order = %v, want ascending ids", got.IDs())
		}
	}
	wantPairs := []category.Pair{{From: 1, To: 3}, {From: 2, To: 3}}
	if !reflect.DeepEqual(got.Pairs, wantPairs) {
		t.Errorf("pairs = %v, want %v", got.Pairs, wantPairs)
	}
	if got.Nodes[1].Image != "cats.png" || got.Nodes[0].Description != "all of them" {
		t.Errorf("optional fields lost: %+v", got.Nodes)
	}
	if got.Nodes[2].Parent() != 2 || got.Nodes[0].HasParent() {
		t.Errorf("parents lost: %+v", got.Nodes)
	}
}

func TestRoundTripPreservesHash(t *testing.T) {
	snap := sample()
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := ExportJSON(snap, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got.Hash() != snap.Hash() {
		t.Error("hash changed across export and import")
	}
}

func TestReadJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  cgerrors.Code
	}{
		{"malformed", `{"nodes": [`, cgerrors.ErrCodeInvalidInput},
		{"unknown field", `{"nodes": [], "extra": 1}`, cgerrors.ErrCodeInvalidInput},
		{"zero id", `{"nodes": [{"id": 0, "name": "x"}]}`, cgerrors.ErrCodeInvalidID},
		{"duplicate id", `{"nodes": [{"id": 1, "name": "x"}, {"id": 1, "name": "y"}]}`, cgerrors.ErrCodeInvalidInput},
		{"empty name", `{"nodes": [{"id": 1, "name": "  "}]}`, cgerrors.ErrCodeInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !cgerrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestReadJSON_KeepsEdgesAsWritten(t *testing.T) {
	in := `{"nodes": [{"id": 1, "name": "a"}], "edges": [[1, 9], [1, 1]]}`
	got, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(got.Pairs) != 2 {
		t.Errorf("pairs = %v, want both kept", got.Pairs)
	}
}

func TestImportJSON_Missing(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json"))
	if !cgerrors.Is(err, cgerrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExportJSON_BadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ExportJSON(sample(), filepath.Join(blocker, "snap.json")); err == nil {
		t.Error("ExportJSON under a regular file succeeded")
	}
}

func TestWriteTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTree(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty tree = %q, want []", buf.String())
	}
}

func TestWriteOutline(t *testing.T) {
	roots := hierarchy.Build(sample().Nodes)

	var buf bytes.Buffer
	if err := WriteOutline(roots, &buf, 0); err != nil {
		t.Fatal(err)
	}
	want := "Animals (#1)\n  Cats (#2)\n    Lions (#3)\n"
	if buf.String() != want {
		t.Errorf("outline =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := WriteOutline(roots, &buf, 2); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Lions") {
		t.Errorf("depth 2 outline printed level 3:\n%s", buf.String())
	}
}

func TestImportJSON_Example(t *testing.T) {
	snap, err := ImportJSON(filepath.Join("..", "..", "examples", "animals.json"))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(snap.Nodes) != 7 || len(snap.Pairs) != 5 {
		t.Fatalf("got %d nodes and %d pairs, want 7 and 5", len(snap.Nodes), len(snap.Pairs))
	}
	roots := 0
	for _, n := range snap.Nodes {
		if n.ParentID == nil {
			roots++
		}
	}
	if roots != 4 {
		t.Errorf("roots = %d, want 4", roots)
	}
}

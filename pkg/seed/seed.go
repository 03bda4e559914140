// Package seed generates category topologies for demos and load tests.
//
// Each generator returns a [Plan]: categories plus similarity pairs that
// refer to categories by their position in the plan. [Apply] writes a plan
// through a store.Store and translates positions into assigned ids.
//
// The topologies mirror the cases the analysis must get right:
//   - [Star]: one hub and many leaves, diameter 2
//   - [Chain]: a single line, diameter length-1
//   - [Complete]: every pair linked, diameter 1
//   - [Random]: unique random pairs from a fixed seed
//   - [Tree]: a parent/child hierarchy with no links
//   - [EdgeCase]: a huge star next to a long chain; the chain must win
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/simgraph"
	"github.com/matzehuels/catgraph/pkg/store"
)

// Limits keep generated plans within what a single transaction handles well.
const (
	MaxNodes         = 1_000_000
	MaxCompleteNodes = 2000
	MaxRandomEdges   = 5_000_000
)

// Link joins two plan positions.
type Link struct{ A, B int }

// Plan is a topology ready to be written.
type Plan struct {
	Name       string
	Categories []store.NewCategory
	Links      []Link
}

func (p *Plan) add(name string) int {
	p.Categories = append(p.Categories, store.NewCategory{Name: name})
	return len(p.Categories) - 1
}

func (p *Plan) merge(o *Plan) {
	base := len(p.Categories)
	for _, c := range o.Categories {
		if c.ParentID != nil && *c.ParentID < 0 {
			c.ParentID = category.Ptr(*c.ParentID - category.ID(base))
		}
		p.Categories = append(p.Categories, c)
	}
	for _, l := range o.Links {
		p.Links = append(p.Links, Link{A: l.A + base, B: l.B + base})
	}
}

func checkCount(what string, n, lo, hi int) error {
	if n < lo || n > hi {
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "%s must be between %d and %d, got %d", what, lo, hi, n)
	}
	return nil
}

// Star returns a hub linked to every leaf.
func Star(leaves int) (*Plan, error) {
	if err := checkCount("leaves", leaves, 1, MaxNodes-1); err != nil {
		return nil, err
	}
	p := &Plan{Name: "star"}
	hub := p.add("Star_Center")
	for i := 0; i < leaves; i++ {
		p.Links = append(p.Links, Link{hub, p.add(fmt.Sprintf("Sat_%d", i))})
	}
	return p, nil
}

// Chain returns length categories linked in a line, named Snake_0 onward.
func Chain(length int) (*Plan, error) {
	if err := checkCount("length", length, 1, MaxNodes); err != nil {
		return nil, err
	}
	p := &Plan{Name: "chain"}
	for i := 0; i < length; i++ {
		cur := p.add(fmt.Sprintf("Snake_%d", i))
		if i > 0 {
			p.Links = append(p.Links, Link{cur - 1, cur})
		}
	}
	return p, nil
}

// Complete returns n categories with every pair linked.
func Complete(n int) (*Plan, error) {
	if err := checkCount("nodes", n, 1, MaxCompleteNodes); err != nil {
		return nil, err
	}
	p := &Plan{Name: "complete"}
	for i := 0; i < n; i++ {
		p.add(fmt.Sprintf("Node_%d", i))
	}
	p.Links = make([]Link, 0, n*(n-1)/2)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			p.Links = append(p.Links, Link{a, b})
		}
	}
	return p, nil
}

// Random returns n categories and m distinct random links. The same seed
// always yields the same plan.
func Random(n, m int, seed uint64) (*Plan, error) {
	if err := checkCount("nodes", n, 2, MaxNodes); err != nil {
		return nil, err
	}
	if maxEdges := n * (n - 1) / 2; m > maxEdges {
		return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "%d nodes allow at most %d distinct links, got %d", n, maxEdges, m)
	}
	if err := checkCount("edges", m, 0, MaxRandomEdges); err != nil {
		return nil, err
	}

	p := &Plan{Name: "random"}
	for i := 0; i < n; i++ {
		p.add(fmt.Sprintf("Cat_%d", i))
	}
	r := rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	set := simgraph.NewEdgeSet(m)
	p.Links = make([]Link, 0, m)
	for set.Len() < m {
		a, b := r.IntN(n), r.IntN(n)
		if set.Add(category.ID(a), category.ID(b)) {
			p.Links = append(p.Links, Link{a, b})
		}
	}
	return p, nil
}

// Tree returns a hierarchy of the given depth where every category has
// fanout children. Depth 1 is a single root.
func Tree(depth, fanout int) (*Plan, error) {
	if err := checkCount("depth", depth, 1, 64); err != nil {
		return nil, err
	}
	if err := checkCount("fanout", fanout, 1, 1000); err != nil {
		return nil, err
	}
	p := &Plan{Name: "tree"}
	level := []int{p.add("Root")}
	for d := 1; d < depth; d++ {
		var next []int
		for _, parent := range level {
			for k := 0; k < fanout; k++ {
				if len(p.Categories) >= MaxNodes {
					return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "tree of depth %d and fanout %d exceeds %d categories", depth, fanout, MaxNodes)
				}
				i := p.add(fmt.Sprintf("%s.%d", p.Categories[parent].Name, k))
				p.Categories[i].ParentID = category.Ptr(-category.ID(parent) - 1)
				next = append(next, i)
			}
		}
		level = next
	}
	return p, nil
}

// EdgeCase returns a star of 10 000 leaves followed by a 100 category chain.
// A correct analysis reports a Snake_ path of 99 hops.
func EdgeCase() *Plan {
	p := &Plan{Name: "edge-case"}
	star, _ := Star(10_000)
	chain, _ := Chain(100)
	p.merge(star)
	p.merge(chain)
	return p
}

// Applied summarizes a written plan.
type Applied struct {
	Categories int
	Links      int
	IDs        []category.ID
}

// Apply writes p to st. Unless appendMode is set the store is cleared first.
func Apply(ctx context.Context, st store.Store, p *Plan, appendMode bool) (Applied, error) {
	if !appendMode {
		if err := st.Clear(ctx); err != nil {
			return Applied{}, err
		}
	}
	ids, err := st.CreateMany(ctx, p.Categories)
	if err != nil {
		return Applied{}, err
	}
	pairs := make([]category.Pair, len(p.Links))
	for i, l := range p.Links {
		pairs[i] = category.Pair{From: ids[l.A], To: ids[l.B]}
	}
	n, err := st.AddSimilarities(ctx, pairs)
	if err != nil {
		return Applied{}, err
	}
	return Applied{Categories: len(ids), Links: n, IDs: ids}, nil
}

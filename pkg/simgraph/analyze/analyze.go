package analyze

import (
	"context"
	"time"

	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/observability"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

// DefaultSampleSize is the number of ids listed per island in a report.
const DefaultSampleSize = 5

// Options configures Analyze.
type Options struct {
	Workers    int // 0 means GOMAXPROCS
	SampleSize int // 0 means DefaultSampleSize, negative means no samples
}

// LongestPath is the winning rabbit hole.
type LongestPath struct {
	NodeIDs   []category.ID `json:"node_ids"`
	Names     []string      `json:"names"`
	HopLength int           `json:"hop_length"`
}

// Report is the result of one analysis run.
type Report struct {
	RunID       string              `json:"run_id,omitempty"`
	Hash        string              `json:"snapshot_hash,omitempty"`
	NodeCount   int                 `json:"node_count"`
	EdgeCount   int                 `json:"edge_count"`
	Islands     int                 `json:"islands"`
	Components  []ComponentInfo     `json:"components"`
	LongestPath *LongestPath        `json:"longest_path"`
	Dropped     simgraph.BuildStats `json:"dropped"`
}

// Analyze builds the similarity graph from snap, partitions it and finds the
// longest rabbit hole. An empty snapshot yields zero islands and a nil path.
func Analyze(ctx context.Context, snap *category.Snapshot, opts Options) (*Report, error) {
	hooks := observability.Analysis()
	start := time.Now()

	ctx = hooks.OnAnalyzeStart(ctx, len(snap.Nodes), len(snap.Pairs))
	rep, err := analyze(ctx, snap, opts)

	islands, hops := 0, 0
	if rep != nil {
		islands = rep.Islands
		if rep.LongestPath != nil {
			hops = rep.LongestPath.HopLength
		}
	}
	hooks.OnAnalyzeComplete(ctx, islands, hops, time.Since(start), err)
	return rep, err
}

func analyze(ctx context.Context, snap *category.Snapshot, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hooks := observability.Analysis()

	g, stats := simgraph.FromSnapshot(snap)
	hooks.OnGraphBuilt(ctx, g.NodeCount(), g.EdgeCount(), stats.Dropped())

	comps := Components(g)

	sample := opts.SampleSize
	if sample == 0 {
		sample = DefaultSampleSize
	}

	best, err := Estimate(ctx, g, comps, EstimateOptions{
		Workers: opts.Workers,
		OnComponent: func(c Candidate, size int) {
			hooks.OnComponent(ctx, size, c.Hops)
		},
	})
	if err != nil {
		return nil, err
	}

	rep := &Report{
		NodeCount:  g.NodeCount(),
		EdgeCount:  g.EdgeCount(),
		Islands:    len(comps),
		Components: Summarize(g, comps, sample),
		Dropped:    stats,
	}
	if best != nil {
		rep.LongestPath = resolve(g, snap.Names(), best)
	}
	return rep, nil
}

func resolve(g *simgraph.Graph, names map[category.ID]string, c *Candidate) *LongestPath {
	ids := g.IDs(c.Path)
	lp := &LongestPath{
		NodeIDs:   ids,
		Names:     make([]string, len(ids)),
		HopLength: c.Hops,
	}
	for i, id := range ids {
		lp.Names[i] = names[id]
	}
	return lp
}

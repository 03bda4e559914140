package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/catgraph/pkg/cache"
	"github.com/matzehuels/catgraph/pkg/category"
	"github.com/matzehuels/catgraph/pkg/hierarchy"
	"github.com/matzehuels/catgraph/pkg/observability"
	"github.com/matzehuels/catgraph/pkg/simgraph/analyze"
	"github.com/matzehuels/catgraph/pkg/store"
)

// Runner encapsulates analysis execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Store  store.Reader
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long analysis reports stay cached. Zero means
	// cache.TTLAnalysis.
	TTL time.Duration
}

// NewRunner creates a runner reading from st.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(st store.Reader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:  st,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Analyze loads a snapshot and returns its analysis report, from the cache
// when the snapshot is unchanged since the last run.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	snap, err := store.Load(ctx, r.Store)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Nodes = len(snap.Nodes)
	result.Stats.Pairs = len(snap.Pairs)

	r.Logger.Debug("loaded snapshot",
		"categories", len(snap.Nodes),
		"pairs", len(snap.Pairs),
		"duration", result.Stats.LoadTime)

	// Stage 2: Lookup
	hash := snap.Hash()
	cacheKey := r.Keyer.AnalysisKey(hash, opts.keyOpts())
	runID := uuid.NewString()

	if !opts.Refresh {
		if rep, ok := r.cachedReport(ctx, cacheKey); ok {
			rep.RunID = runID
			result.Report = rep
			result.CacheHit = true
			r.Logger.Info("analysis cache hit", "islands", rep.Islands, "snapshot", hash[:12])
			return result, nil
		}
	}

	// Stage 3: Analyze
	analyzeStart := time.Now()
	rep, err := analyze.Analyze(ctx, snap, analyze.Options{
		Workers:    opts.Workers,
		SampleSize: opts.SampleSize,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	rep.Hash = hash
	result.Stats.AnalyzeTime = time.Since(analyzeStart)

	if d := rep.Dropped; d.Dropped() > 0 {
		r.Logger.Debug("dropped malformed pairs",
			"self_loops", d.SelfLoops,
			"duplicates", d.Duplicates,
			"unknown", d.UnknownNodes)
	}
	hops := 0
	if rep.LongestPath != nil {
		hops = rep.LongestPath.HopLength
	}
	r.Logger.Info("analyzed graph",
		"categories", rep.NodeCount,
		"edges", rep.EdgeCount,
		"islands", rep.Islands,
		"hops", hops,
		"duration", result.Stats.AnalyzeTime)

	r.storeReport(ctx, cacheKey, rep)

	rep.RunID = runID
	result.Report = rep
	return result, nil
}

func (r *Runner) cachedReport(ctx context.Context, key string) (*analyze.Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "analysis")
		return nil, false
	}
	var rep analyze.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		// If deserialization fails, fall through to recompute
		observability.Cache().OnCacheMiss(ctx, "analysis")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "analysis")
	return &rep, true
}

func (r *Runner) storeReport(ctx context.Context, key string, rep *analyze.Report) {
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.TTLAnalysis
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "analysis", len(data))
}

// Tree assembles the category forest from the current rows.
func (r *Runner) Tree(ctx context.Context) ([]*hierarchy.TreeNode, hierarchy.Stats, error) {
	nodes, err := r.Store.ListNodes(ctx)
	if err != nil {
		return nil, hierarchy.Stats{}, fmt.Errorf("load: %w", err)
	}
	roots, stats := hierarchy.BuildWithStats(nodes)
	if stats.Orphans > 0 || stats.CyclesBroken > 0 {
		r.Logger.Debug("repaired hierarchy",
			"orphans", stats.Orphans,
			"cycles_broken", stats.CyclesBroken)
	}
	return roots, stats, nil
}

// TreeJSON returns the serialized forest and whether it came from the cache.
func (r *Runner) TreeJSON(ctx context.Context, refresh bool) ([]byte, bool, error) {
	nodes, err := r.Store.ListNodes(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}
	key := r.Keyer.TreeKey(category.TreeHash(nodes))

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "tree")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	data, err := json.Marshal(hierarchy.Build(nodes))
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLTree); err == nil {
		observability.Cache().OnCacheSet(ctx, "tree", len(data))
	}
	return data, false, nil
}

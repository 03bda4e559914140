// Package pipeline runs the category graph analysis end to end.
//
// This package wires the store, the cache and the graph engine together so
// the CLI and the API server behave identically. By centralizing this logic
// both entry points share one caching policy and one set of defaults.
//
// # Architecture
//
// An analysis run has three stages:
//
//  1. Load: read one point-in-time snapshot of categories and links
//  2. Lookup: derive a cache key from the snapshot hash and try the cache
//  3. Analyze: build the similarity graph, find islands and the longest
//     rabbit hole, then store the report in the cache
//
// The category tree is assembled from the same store and cached by the hash
// of the category rows alone.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, cache, nil, logger)
//	result, err := runner.Analyze(ctx, pipeline.Options{Workers: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Islands)
package pipeline

import (
	"time"

	"github.com/matzehuels/catgraph/pkg/cache"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/simgraph/analyze"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSampleSize is the number of ids listed per island.
	DefaultSampleSize = analyze.DefaultSampleSize

	// MaxSampleSize caps sample_size requests.
	MaxSampleSize = 1000

	// MaxWorkers caps the worker count of a single run.
	MaxWorkers = 256
)

// =============================================================================
// Options - Analysis Configuration
// =============================================================================

// Options configures one analysis run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Workers    int  `json:"workers,omitempty"`     // 0 means GOMAXPROCS
	SampleSize int  `json:"sample_size,omitempty"` // 0 means DefaultSampleSize
	Refresh    bool `json:"refresh,omitempty"`     // ignore cached reports

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks ranges and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "workers must be between 0 and %d, got %d", MaxWorkers, o.Workers)
	}
	if o.SampleSize < 0 || o.SampleSize > MaxSampleSize {
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "sample_size must be between 0 and %d, got %d", MaxSampleSize, o.SampleSize)
	}
	if o.SampleSize == 0 {
		o.SampleSize = DefaultSampleSize
	}
	o.validated = true
	return nil
}

func (o Options) keyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{SampleSize: o.SampleSize}
}

// Result contains the outputs of an analysis run.
type Result struct {
	// Report is the analysis report. Report.RunID identifies this run.
	Report *analyze.Report

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the report came from the cache.
	CacheHit bool
}

// Stats contains run statistics.
type Stats struct {
	Nodes       int
	Pairs       int
	LoadTime    time.Duration
	AnalyzeTime time.Duration
}

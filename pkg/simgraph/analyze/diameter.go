package analyze

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/catgraph/pkg/simgraph"
)

// Candidate is the longest path found in one component.
type Candidate struct {
	Component int     // position in the Components order
	Path      []int32 // dense indices, u first
	Hops      int
}

// DoubleSweep estimates the diameter of a single component. Components of
// size one have no path and yield a zero Candidate with nil Path.
func DoubleSweep(g *simgraph.Graph, c Component) Candidate {
	return newSweeper(g).sweep(c)
}

func (s *sweeper) sweep(c Component) Candidate {
	if c.Size() < 2 {
		return Candidate{}
	}
	u, _ := s.farthest(c.First())
	s.reset()
	v, d := s.farthest(u)
	p := s.path(v)
	s.reset()
	return Candidate{Path: p, Hops: int(d)}
}

// EstimateOptions tunes Estimate.
type EstimateOptions struct {
	// Workers bounds the number of components evaluated concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// OnComponent, when set, is called after each evaluated component.
	// It may be called from several goroutines at once.
	OnComponent func(c Candidate, size int)
}

// Estimate evaluates every component and returns the global winner, or nil
// when no component has a path. The context is checked before each
// component; on cancellation Estimate returns ctx.Err().
func Estimate(ctx context.Context, g *simgraph.Graph, comps []Component, opts EstimateOptions) (*Candidate, error) {
	var work []int
	for i, c := range comps {
		if c.Size() >= 2 {
			work = append(work, i)
		}
	}
	if len(work) == 0 {
		return nil, ctx.Err()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(work))

	results := make([]Candidate, len(work))
	var next atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			s := newSweeper(g)
			for {
				if err := egCtx.Err(); err != nil {
					return err
				}
				k := int(next.Add(1) - 1)
				if k >= len(work) {
					return nil
				}
				c := s.sweep(comps[work[k]])
				c.Component = work[k]
				results[k] = c
				if opts.OnComponent != nil {
					opts.OnComponent(c, comps[work[k]].Size())
				}
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reduce(results), nil
}

// reduce picks the candidate with the strictly greatest hop count. Results
// are in component order, so ties keep the earlier component.
func reduce(results []Candidate) *Candidate {
	var best *Candidate
	for i := range results {
		c := &results[i]
		if c.Hops == 0 {
			continue
		}
		if best == nil || c.Hops > best.Hops {
			best = c
		}
	}
	return best
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/store"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	workers    int
	sampleSize int
	top        int
	jsonOut    bool
	noCache    bool
	refresh    bool
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{top: 10}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find islands and the longest rabbit hole",
		Long: `Analyze the similarity graph of every stored category.

Islands are the connected components of the graph, isolated categories
included. The longest rabbit hole is the longest shortest path found by a
double-sweep search in each island. It is exact when the island is a tree and
a lower bound otherwise.

Results are cached by a hash of the stored data, so repeated runs against an
unchanged store return immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				return c.runAnalyze(cmd, st, opts)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (0 uses every CPU)")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "ids listed per island (default 5)")
	cmd.Flags().IntVar(&opts.top, "top", opts.top, "islands shown in the table (0 shows all)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the analysis cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite the cached report")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, st store.Store, opts analyzeOpts) error {
	ctx := cmd.Context()
	runner := c.newRunner(ctx, st, opts.noCache)
	defer runner.Cache.Close()

	popts := pipeline.Options{
		Workers:    opts.workers,
		SampleSize: opts.sampleSize,
		Refresh:    opts.refresh,
	}
	c.analysisDefaults(&popts)

	var spin *Spinner
	if !opts.jsonOut {
		spin = newSpinner(ctx, "Analyzing similarity graph...")
		spin.Start()
	}
	res, err := runner.Analyze(ctx, popts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	rep := res.Report

	if opts.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	printSuccess("Graph built: %d categories", rep.NodeCount)
	printStats(rep.NodeCount, rep.EdgeCount, res.CacheHit)
	if d := rep.Dropped.Dropped(); d > 0 {
		printWarning("Ignored %d malformed links", d)
	}
	printNewline()

	printInfo("Found %s islands", StyleNumber.Render(fmt.Sprint(rep.Islands)))
	printIslands(rep.Components, opts.top)
	printNewline()

	printRabbitHole(rep.LongestPath)
	return nil
}

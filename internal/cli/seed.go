package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/seed"
	"github.com/matzehuels/catgraph/pkg/store"
)

// edgeCasePrefix names the chain that must win the edge-case analysis.
const edgeCasePrefix = "Snake_"

var errEdgeCaseFailed = errors.New("edge-case check failed")

// seedCommand creates the seed command with one subcommand per topology.
func (c *CLI) seedCommand() *cobra.Command {
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate test topologies",
		Long: `Generate categories and similarity links with a known shape.

Seeding clears the store first unless --append is given.

Examples:
  catgraph seed star --leaves 10000
  catgraph seed chain --length 100 --append
  catgraph seed random --nodes 100000 --edges 200000 --seed 7
  catgraph seed edge-case`,
	}
	cmd.PersistentFlags().BoolVar(&appendMode, "append", false, "keep existing categories")

	planCmd := func(use, short string, build func() (*seed.Plan, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := build()
				if err != nil {
					return err
				}
				_, err = c.applyPlan(cmd, p, appendMode)
				return err
			},
		}
	}

	var leaves, length, completeNodes, randomNodes, edges, depth, fanout int
	var rngSeed uint64

	star := planCmd("star", "One hub linked to every leaf", func() (*seed.Plan, error) { return seed.Star(leaves) })
	star.Flags().IntVar(&leaves, "leaves", 1000, "number of leaves")

	chain := planCmd("chain", "Categories linked in a line", func() (*seed.Plan, error) { return seed.Chain(length) })
	chain.Flags().IntVar(&length, "length", 100, "number of categories")

	complete := planCmd("complete", "Every pair of categories linked", func() (*seed.Plan, error) { return seed.Complete(completeNodes) })
	complete.Flags().IntVar(&completeNodes, "nodes", 100, "number of categories")

	random := planCmd("random", "Distinct random links", func() (*seed.Plan, error) { return seed.Random(randomNodes, edges, rngSeed) })
	random.Flags().IntVar(&randomNodes, "nodes", 10000, "number of categories")
	random.Flags().IntVar(&edges, "edges", 20000, "number of distinct links")
	random.Flags().Uint64Var(&rngSeed, "seed", 1, "random seed")

	tree := planCmd("tree", "A category hierarchy without links", func() (*seed.Plan, error) { return seed.Tree(depth, fanout) })
	tree.Flags().IntVar(&depth, "depth", 4, "number of levels")
	tree.Flags().IntVar(&fanout, "fanout", 3, "children per category")

	cmd.AddCommand(star, chain, complete, random, tree, c.edgeCaseCommand(&appendMode))
	return cmd
}

// applyPlan writes p to the configured store.
func (c *CLI) applyPlan(cmd *cobra.Command, p *seed.Plan, appendMode bool) (seed.Applied, error) {
	var applied seed.Applied
	err := c.withStore(cmd.Context(), func(st store.Store) error {
		var err error
		applied, err = seedStore(cmd, st, p, appendMode)
		return err
	})
	return applied, err
}

func seedStore(cmd *cobra.Command, st store.Store, p *seed.Plan, appendMode bool) (seed.Applied, error) {
	prog := newProgress(loggerFromContext(cmd.Context()))
	applied, err := seed.Apply(cmd.Context(), st, p, appendMode)
	if err != nil {
		return seed.Applied{}, err
	}
	prog.done("seeded", "plan", p.Name, "categories", applied.Categories)
	printSuccess("Seeded %s: %d categories, %d links", p.Name, applied.Categories, applied.Links)
	return applied, nil
}

// edgeCaseCommand seeds a large star next to a long chain and checks that
// the analysis picks the chain.
func (c *CLI) edgeCaseCommand(appendMode *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "edge-case",
		Short: "A 10000 leaf star next to a 100 category chain",
		Long: `Seed a star with 10000 leaves and a separate chain of 100 categories,
then analyze. The star has many more categories but its longest path is only
2 hops, while the chain's is 99. The check passes when the longest rabbit
hole runs along the chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if _, err := seedStore(cmd, st, seed.EdgeCase(), *appendMode); err != nil {
					return err
				}
				runner := c.newRunner(cmd.Context(), st, true)
				res, err := runner.Analyze(cmd.Context(), pipeline.Options{Refresh: true})
				if err != nil {
					return err
				}
				printRabbitHole(res.Report.LongestPath)
				if lp := res.Report.LongestPath; lp != nil && strings.HasPrefix(lp.Names[0], edgeCasePrefix) {
					printSuccess("PASS: the longest rabbit hole follows the chain")
					return nil
				}
				printError("FAIL: the longest rabbit hole should follow the %s chain", edgeCasePrefix)
				return errEdgeCaseFailed
			})
		},
	}
}

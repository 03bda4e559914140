package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/hierarchy"
	pkgio "github.com/matzehuels/catgraph/pkg/io"
	"github.com/matzehuels/catgraph/pkg/store"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type treeOpts struct {
	format string
	depth  int
	output string
}

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	opts := treeOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the category hierarchy",
		Long: `Print every category nested under its parent.

Categories whose parent is missing, or that sit on a parent loop, are shown as
roots so that every category appears exactly once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatText && opts.format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatText, formatJSON)
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				runner := c.newRunner(cmd.Context(), st, true)
				roots, stats, err := runner.Tree(cmd.Context())
				if err != nil {
					return err
				}
				if err := writeTree(roots, opts); err != nil {
					return err
				}
				if opts.output != "" {
					printSuccess("Wrote %d categories in %d trees", stats.Rows, stats.Roots)
					printFile(opts.output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text or json")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "levels to print in text format (0 prints all)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func writeTree(roots []*hierarchy.TreeNode, opts treeOpts) error {
	var w io.Writer = stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
		defer f.Close()
		w = f
	}
	if opts.format == formatJSON {
		return pkgio.WriteTree(roots, w)
	}
	return pkgio.WriteOutline(roots, w, opts.depth)
}

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/category"
	pkgio "github.com/matzehuels/catgraph/pkg/io"
	"github.com/matzehuels/catgraph/pkg/store"
)

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load categories and links from a JSON snapshot",
		Long: `Load a JSON snapshot written by "catgraph export". Use - to read stdin.

Category ids are kept. The store is cleared first unless --append is given,
in which case every imported id must be unused. Links naming unknown
categories are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				ctx := cmd.Context()
				prog := newProgress(loggerFromContext(ctx))
				if !appendMode {
					if err := st.Clear(ctx); err != nil {
						return err
					}
				}
				if err := st.InsertNodes(ctx, snap.Nodes); err != nil {
					return err
				}
				links, err := st.AddSimilarities(ctx, snap.Pairs)
				if err != nil {
					return err
				}
				prog.done("imported", "file", args[0], "categories", len(snap.Nodes), "links", links)
				printSuccess("Imported %d categories, %d links", len(snap.Nodes), links)
				if skipped := len(snap.Pairs) - links; skipped > 0 {
					printDetail("%d links were duplicates or named unknown categories", skipped)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&appendMode, "append", false, "keep existing categories")
	return cmd
}

func readSnapshot(path string) (*category.Snapshot, error) {
	if path == "-" {
		return pkgio.ReadJSON(os.Stdin)
	}
	return pkgio.ImportJSON(path)
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all categories and links as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				snap, err := store.Load(cmd.Context(), st)
				if err != nil {
					return err
				}
				if output == "" {
					return pkgio.WriteJSON(snap, stdout)
				}
				if err := pkgio.ExportJSON(snap, output); err != nil {
					return err
				}
				printSuccess("Exported %d categories, %d links", len(snap.Nodes), len(snap.Pairs))
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

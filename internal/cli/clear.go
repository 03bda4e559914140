package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/store"
)

// clearCommand creates the clear command.
func (c *CLI) clearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every category and link",
		Long: `Delete every category and similarity link and restart id assignment at 1.

You are asked to type "yes" unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirmTerminal(cmd.Context(), "This deletes ALL categories and links.")
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Nothing deleted")
					return errAborted
				}
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Clear(cmd.Context()); err != nil {
					return err
				}
				printSuccess("Deleted all categories and links")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

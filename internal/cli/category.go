package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/store"
)

// parseID parses a category id argument.
func parseID(s string) (category.ID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, cgerrors.New(cgerrors.ErrCodeInvalidID, "invalid category id %q", s)
	}
	return id, cgerrors.ValidateID(id)
}

func parseIDs(args []string) ([]category.ID, error) {
	ids := make([]category.ID, len(args))
	for i, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func parentLabel(n category.Node) string {
	if !n.HasParent() {
		return "none"
	}
	return "#" + strconv.FormatInt(n.Parent(), 10)
}

// addCommand creates the add command.
func (c *CLI) addCommand() *cobra.Command {
	var req store.NewCategory
	var parent int64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			if parent != 0 {
				req.ParentID = category.Ptr(parent)
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				n, err := st.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				printSuccess("Created %s (#%d)", n.Name, n.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().StringVar(&req.Image, "image", "", "image reference")
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "parent category id")
	return cmd
}

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a category and its similar categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				d, err := st.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				similar, err := st.Similar(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, StyleTitle.Render(d.Name))
				printKeyValue("id", strconv.FormatInt(d.ID, 10))
				printKeyValue("parent", parentLabel(d.Node))
				if d.Description != "" {
					printKeyValue("description", d.Description)
				}
				if d.Image != "" {
					printKeyValue("image", d.Image)
				}
				printKeyValue("similar", fmt.Sprintf("%d %s", d.SimilarCount, formatIDs(similar, 20)))
				return nil
			})
		},
	}
}

// formatIDs renders at most limit ids as "[#1 #2 …]".
func formatIDs(ids []category.ID, limit int) string {
	if len(ids) == 0 {
		return ""
	}
	shown := ids
	if len(shown) > limit {
		shown = shown[:limit]
	}
	parts := make([]string, len(shown))
	for i, id := range shown {
		parts[i] = "#" + strconv.FormatInt(id, 10)
	}
	if len(ids) > limit {
		parts = append(parts, "…")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				p, err := st.List(cmd.Context(), page, pageSize)
				if err != nil {
					return err
				}
				for _, n := range p.Items {
					fmt.Fprintf(stdout, "%s  %s  %s\n",
						StyleNumber.Render(fmt.Sprintf("#%-6d", n.ID)),
						StyleValue.Render(n.Name),
						StyleDim.Render("parent "+parentLabel(n)))
				}
				printDetail("page %d, %d of %d categories", p.Page, len(p.Items), p.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", store.DefaultPageSize, "categories per page")
	return cmd
}

// moveCommand creates the move command.
func (c *CLI) moveCommand() *cobra.Command {
	var root bool

	cmd := &cobra.Command{
		Use:   "move <id> [parent-id]",
		Short: "Change a category's parent",
		Long: `Move a category under a new parent, or make it a root with --root.

A category cannot move under itself or one of its descendants.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			var parent *category.ID
			switch {
			case root && len(ids) == 2:
				return fmt.Errorf("give either a parent id or --root, not both")
			case !root && len(ids) == 1:
				return fmt.Errorf("missing parent id (use --root to make a root)")
			case len(ids) == 2:
				parent = category.Ptr(ids[1])
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				n, err := st.Move(cmd.Context(), ids[0], parent)
				if err != nil {
					return err
				}
				printSuccess("Moved %s (#%d), parent %s", n.Name, n.ID, parentLabel(n))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&root, "root", false, "make the category a root")
	return cmd
}

// deleteCommand creates the delete command.
func (c *CLI) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Its children become roots and its links are removed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Deleted #%d", id)
				return nil
			})
		},
	}
}

// linkCommand creates the link command.
func (c *CLI) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <id> <id>",
		Short: "Mark two categories as similar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				created, err := st.Link(cmd.Context(), ids[0], ids[1])
				if err != nil {
					return err
				}
				if created {
					printSuccess("Linked #%d and #%d", ids[0], ids[1])
				} else {
					printInfo("#%d and #%d are already linked", ids[0], ids[1])
				}
				return nil
			})
		},
	}
}

// unlinkCommand creates the unlink command.
func (c *CLI) unlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <id> <id>",
		Short: "Remove the similarity between two categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				removed, err := st.Unlink(cmd.Context(), ids[0], ids[1])
				if err != nil {
					return err
				}
				if removed {
					printSuccess("Unlinked #%d and #%d", ids[0], ids[1])
				} else {
					printInfo("#%d and #%d were not linked", ids[0], ids[1])
				}
				return nil
			})
		},
	}
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ammiranda/forest/models"
	"github.com/ammiranda/forest/service"

	"github.com/spf13/cobra"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Display every tree in the forest",
		Long: `Display every root node with its full subtree, one node per line,
indented by depth.

Example:
  forest list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *service.TreeService) error {
				trees, err := svc.FindAllTrees(cmd.Context())
				if err != nil {
					return err
				}
				if len(trees) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "The forest is empty")
					return nil
				}
				for _, tree := range trees {
					printTree(cmd.OutOrStdout(), tree, 0)
				}
				return nil
			})
		},
	}
}

func printTree(w io.Writer, node *models.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%d %s\n", indent, node.ID, node.Label)

	for _, child := range node.Children {
		printTree(w, child, depth+1)
	}
}

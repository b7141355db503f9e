package cmd

import (
	"fmt"

	"github.com/ammiranda/forest/service"

	"github.com/spf13/cobra"
)

func newCreateCmd(c *cli) *cobra.Command {
	var parent int64

	createCmd := &cobra.Command{
		Use:   "create <label>",
		Short: "Create a node",
		Long: `Create a node with the given label. Without --parent the node
starts a new tree.

Examples:
  forest create animals
  forest create cats --parent 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parentID *int64
			if cmd.Flags().Changed("parent") {
				parentID = &parent
			}
			return c.withService(cmd.Context(), func(svc *service.TreeService) error {
				node, err := svc.CreateNode(cmd.Context(), args[0], parentID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s with id %d\n", node.Label, node.ID)
				return nil
			})
		},
	}

	createCmd.Flags().Int64VarP(&parent, "parent", "p", 0, "id of the parent node")
	return createCmd
}

package cmd

import (
	"github.com/ammiranda/forest/service"

	"github.com/spf13/cobra"
)

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Display a node and its subtree",
		Long: `Display the node with the given id and all of its descendants.

Example:
  forest get 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(svc *service.TreeService) error {
				node, err := svc.FindNodeByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				printTree(cmd.OutOrStdout(), node, 0)
				return nil
			})
		},
	}
}

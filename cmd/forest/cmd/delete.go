package cmd

import (
	"fmt"
	"strconv"

	"github.com/ammiranda/forest/service"

	"github.com/spf13/cobra"
)

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node and its subtree",
		Long: `Delete the node with the given id.

Warning: This operation cannot be undone. Every descendant of the
node is deleted with it.

Example:
  forest delete 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(svc *service.TreeService) error {
				deleted, err := svc.DeleteNodeByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s with id %d along with its children\n", deleted.Label, deleted.ID)
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid node id %q", raw)
	}
	return id, nil
}

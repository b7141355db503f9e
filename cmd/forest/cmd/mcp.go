package cmd

import (
	"github.com/ammiranda/forest/internal/tools"
	"github.com/ammiranda/forest/service"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tree tools over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
find-all-trees, create-new-node, find-node-by-id and delete-node-by-id
tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *service.TreeService) error {
				return server.ServeStdio(tools.NewServer(svc, Version))
			})
		},
	}
}

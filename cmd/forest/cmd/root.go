package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/internal/app"
	"github.com/ammiranda/forest/logging"
	"github.com/ammiranda/forest/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// Version is reported by the MCP server
var Version = "0.1.0"

// cli holds the flags shared by every subcommand
type cli struct {
	store      string
	sqlitePath string
}

// NewRootCmd builds the forest command tree
func NewRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "forest",
		Short: "Manage a forest of labeled trees",
		Long: `forest is a command-line interface for a forest of labeled nodes.

Every node has at most one parent. Deleting a node deletes its whole
subtree. The store is chosen with --store or STORE_DRIVER.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.store, "store", "", "node store: memory, sqlite or postgres (default from STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&c.sqlitePath, "db", "", "path to the SQLite database (default from SQLITE_PATH)")

	rootCmd.AddCommand(
		newListCmd(c),
		newGetCmd(c),
		newCreateCmd(c),
		newDeleteCmd(c),
		newMCPCmd(c),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withService opens the configured store for the duration of fn
func (c *cli) withService(ctx context.Context, fn func(svc *service.TreeService) error) error {
	provider, err := config.NewProvider(ctx)
	if err != nil {
		return err
	}
	provider = &flagProvider{
		Provider: provider,
		values: map[string]string{
			"STORE_DRIVER": c.store,
			"SQLITE_PATH":  c.sqlitePath,
		},
	}

	// stdout belongs to command output, keep the log quiet
	logger, err := logging.NewAtLevel(provider.GetEnvironment(), zapcore.WarnLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	forest, err := app.New(ctx, provider, logger)
	if err != nil {
		return err
	}
	defer forest.Close(ctx)

	return fn(forest.Service)
}

// flagProvider answers keys set on the command line before deferring to
// the wrapped provider
type flagProvider struct {
	config.Provider
	values map[string]string
}

func (p *flagProvider) GetString(ctx context.Context, key string) (string, error) {
	if value := p.values[key]; value != "" {
		return value, nil
	}
	return p.Provider.GetString(ctx, key)
}

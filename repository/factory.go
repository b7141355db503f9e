package repository

import (
	"context"
	"fmt"

	"github.com/ammiranda/forest/config"
)

// New builds the repository selected by cfg. The caller must Initialize it.
func New(ctx context.Context, cfg *config.StoreConfig, provider config.Provider) (Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	case config.DriverSQLite:
		return NewSQLiteRepository(cfg.SQLitePath), nil
	case config.DriverPostgres:
		return NewPostgresRepository(ctx, provider)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

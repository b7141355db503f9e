package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Expansion strategies
const (
	StrategyRecursive = "recursive"
	StrategyBatched   = "batched"
)

// Cache drivers
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheDynamoDB = "dynamodb"
)

// StoreConfig selects and tunes the node store
type StoreConfig struct {
	Driver            string
	SQLitePath        string
	Timeout           time.Duration
	ExpandStrategy    string
	ExpandConcurrency int
}

// CacheConfig selects and tunes the forest cache
type CacheConfig struct {
	Driver        string
	RedisAddr     string
	TTL           time.Duration
	DynamoDBTable string
}

// DefaultSQLitePath is ~/.forest/forest.db, or ./forest.db without a home directory
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "forest.db"
	}
	return filepath.Join(homeDir, ".forest", "forest.db")
}

// GetStoreConfig reads the store configuration, applying defaults for unset keys
func GetStoreConfig(ctx context.Context, provider Provider) (*StoreConfig, error) {
	cfg := &StoreConfig{
		Driver:            stringOr(ctx, provider, "STORE_DRIVER", DriverSQLite),
		SQLitePath:        stringOr(ctx, provider, "SQLITE_PATH", DefaultSQLitePath()),
		ExpandStrategy:    stringOr(ctx, provider, "EXPAND_STRATEGY", StrategyBatched),
		ExpandConcurrency: 8,
		Timeout:           5 * time.Second,
	}

	if raw, err := provider.GetString(ctx, "STORE_TIMEOUT"); err == nil {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, &ValidationError{Field: "STORE_TIMEOUT", Message: fmt.Sprintf("invalid duration %q", raw)}
		}
		cfg.Timeout = timeout
	}

	if raw, err := provider.GetString(ctx, "EXPAND_CONCURRENCY"); err == nil && raw != "" {
		n, err := provider.GetInt(ctx, "EXPAND_CONCURRENCY")
		if err != nil {
			return nil, &ValidationError{Field: "EXPAND_CONCURRENCY", Message: "concurrency must be a valid number"}
		}
		cfg.ExpandConcurrency = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the store configuration is valid
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return &ValidationError{Field: "SQLITE_PATH", Message: "path cannot be empty"}
		}
	default:
		return &ValidationError{Field: "STORE_DRIVER", Message: fmt.Sprintf("unknown driver %q", c.Driver)}
	}

	if c.ExpandStrategy != StrategyRecursive && c.ExpandStrategy != StrategyBatched {
		return &ValidationError{Field: "EXPAND_STRATEGY", Message: fmt.Sprintf("unknown strategy %q", c.ExpandStrategy)}
	}
	if c.ExpandConcurrency < 1 {
		return &ValidationError{Field: "EXPAND_CONCURRENCY", Message: "concurrency must be at least 1"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "STORE_TIMEOUT", Message: "timeout cannot be negative"}
	}
	return nil
}

// GetCacheConfig reads the cache configuration, applying defaults for unset keys
func GetCacheConfig(ctx context.Context, provider Provider) (*CacheConfig, error) {
	cfg := &CacheConfig{
		Driver: stringOr(ctx, provider, "CACHE_DRIVER", CacheNone),
		RedisAddr: fmt.Sprintf("%s:%s",
			stringOr(ctx, provider, "REDIS_HOST", "localhost"),
			stringOr(ctx, provider, "REDIS_PORT", "6379"),
		),
		TTL:           5 * time.Minute,
		DynamoDBTable: stringOr(ctx, provider, "DYNAMODB_TABLE", "TreeCache"),
	}

	if raw, err := provider.GetString(ctx, "CACHE_TTL"); err == nil {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, &ValidationError{Field: "CACHE_TTL", Message: fmt.Sprintf("invalid duration %q", raw)}
		}
		cfg.TTL = ttl
	}

	switch cfg.Driver {
	case CacheNone, CacheMemory, CacheRedis, CacheDynamoDB:
	default:
		return nil, &ValidationError{Field: "CACHE_DRIVER", Message: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
	return cfg, nil
}

func stringOr(ctx context.Context, provider Provider, key, fallback string) string {
	value, err := provider.GetString(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

// Shared reports whether every process reading the cache sees the same
// forest, so an invalidation by one process reaches all of them
func (c *CacheConfig) Shared() bool {
	return c.Driver == CacheRedis || c.Driver == CacheDynamoDB
}

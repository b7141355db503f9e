// Package app wires the store, cache and tree service from configuration.
// Every entry point builds its dependencies through here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ammiranda/forest/cache"
	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/repository"
	"github.com/ammiranda/forest/service"

	"go.uber.org/zap"
)

// App holds the initialized dependencies of a running process
type App struct {
	Store   *config.StoreConfig
	Repo    repository.Repository
	Cache   cache.CacheProvider
	Service *service.TreeService
	logger  *zap.Logger
}

// Option configures New
type Option func(*options)

type options struct {
	requireSharedCache bool
}

// RequireSharedCache rejects a per-process cache. Use it where several
// processes serve the same store and must see each other's writes.
func RequireSharedCache() Option {
	return func(o *options) {
		o.requireSharedCache = true
	}
}

// New reads the store and cache configuration from provider, initializes
// the selected store and cache and returns a ready tree service. The
// caller must Close the App.
func New(ctx context.Context, provider config.Provider, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	storeCfg, err := config.GetStoreConfig(ctx, provider)
	if err != nil {
		return nil, err
	}
	cacheCfg, err := config.GetCacheConfig(ctx, provider)
	if err != nil {
		return nil, err
	}
	if o.requireSharedCache && cacheCfg.Driver != config.CacheNone && !cacheCfg.Shared() {
		return nil, fmt.Errorf("cache driver %q is per-process; use %q, %q or %q",
			cacheCfg.Driver, config.CacheNone, config.CacheRedis, config.CacheDynamoDB)
	}

	repo, err := repository.New(ctx, storeCfg, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	forestCache, err := cache.New(ctx, cacheCfg)
	if err != nil {
		// A missing cache degrades reads, it does not stop the service
		logger.Warn("Cache unavailable, continuing without it",
			zap.String("driver", cacheCfg.Driver),
			zap.Error(err),
		)
		forestCache = nil
	}

	assembler := service.NewAssembler(repo,
		service.WithStrategy(service.Strategy(storeCfg.ExpandStrategy)),
		service.WithConcurrency(storeCfg.ExpandConcurrency),
	)

	svcOpts := []service.Option{
		service.WithAssembler(assembler),
		service.WithLogger(logger),
		service.WithTimeout(storeCfg.Timeout),
	}
	if forestCache != nil {
		svcOpts = append(svcOpts, service.WithCache(forestCache))
	}

	logger.Info("Tree service ready",
		zap.String("store", storeCfg.Driver),
		zap.String("strategy", storeCfg.ExpandStrategy),
		zap.Int("concurrency", storeCfg.ExpandConcurrency),
		zap.String("cache", cacheCfg.Driver),
	)

	return &App{
		Store:   storeCfg,
		Repo:    repo,
		Cache:   forestCache,
		Service: service.NewTreeService(repo, svcOpts...),
		logger:  logger,
	}, nil
}

// Close releases the store and the cache connection, if any
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Repo.Cleanup(ctx); err != nil {
		a.logger.Error("Failed to clean up repository", zap.Error(err))
		errs = append(errs, err)
	}
	if closer, ok := a.Cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("Failed to close cache", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

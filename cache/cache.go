package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ammiranda/forest/config"
	"github.com/ammiranda/forest/models"
)

// forestKey is the cache key of the assembled forest
const forestKey = "forest"

// CacheProvider defines the interface for cache implementations.
// It caches the fully assembled forest returned by the tree service.
type CacheProvider interface {
	// GetTrees retrieves the forest from cache if available.
	// Returns:
	//   - The cached trees
	//   - A boolean indicating whether the trees were found in cache
	GetTrees(ctx context.Context) ([]*models.Node, bool)

	// SetTrees stores the forest in cache.
	SetTrees(ctx context.Context, trees []*models.Node)

	// InvalidateCache removes all cached data.
	// This is called whenever a node is created or deleted.
	InvalidateCache(ctx context.Context) error

	// SetCacheTTL sets the duration after which cached data expires.
	SetCacheTTL(ttl time.Duration)

	// Initialize performs any necessary setup for the cache provider,
	// such as checking connectivity or creating tables.
	Initialize(ctx context.Context) error
}

// New builds and initializes the cache selected by cfg. It returns a nil
// provider when caching is disabled.
func New(ctx context.Context, cfg *config.CacheConfig) (CacheProvider, error) {
	var provider CacheProvider
	switch cfg.Driver {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		provider = NewMemoryCache()
	case config.CacheRedis:
		provider = NewRedisCache(cfg.RedisAddr)
	case config.CacheDynamoDB:
		dynamoCache, err := NewDynamoDBCache(ctx, cfg.DynamoDBTable)
		if err != nil {
			return nil, fmt.Errorf("failed to create DynamoDB cache: %w", err)
		}
		provider = dynamoCache
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}

	provider.SetCacheTTL(cfg.TTL)
	if err := provider.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", cfg.Driver, err)
	}
	return provider, nil
}

// cloneTrees deep-copies trees so cached values never alias caller data
func cloneTrees(trees []*models.Node) []*models.Node {
	if trees == nil {
		return nil
	}
	out := make([]*models.Node, len(trees))
	for i, tree := range trees {
		node := models.NewNode(tree.ID, tree.Label)
		node.Children = cloneTrees(tree.Children)
		if node.Children == nil {
			node.Children = make([]*models.Node, 0)
		}
		out[i] = node
	}
	return out
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ammiranda/forest/models"
)

// MemoryCache implements CacheProvider using in-memory storage
type MemoryCache struct {
	mu     sync.RWMutex
	trees  []*models.Node
	ttl    time.Duration
	expiry time.Time
}

// NewMemoryCache creates a new in-memory cache provider
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		ttl: 5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MemoryCache) Initialize(ctx context.Context) error {
	return nil
}

// GetTrees retrieves the forest from cache if available
func (c *MemoryCache) GetTrees(ctx context.Context) ([]*models.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.trees == nil || time.Now().After(c.expiry) {
		return nil, false
	}
	return cloneTrees(c.trees), true
}

// SetTrees stores the forest in cache
func (c *MemoryCache) SetTrees(ctx context.Context, trees []*models.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trees = cloneTrees(trees)
	if c.trees == nil {
		c.trees = make([]*models.Node, 0)
	}
	c.expiry = time.Now().Add(c.ttl)
}

// InvalidateCache removes all cached data
func (c *MemoryCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trees = nil
	c.expiry = time.Time{}
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MemoryCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	if c.trees != nil {
		c.expiry = time.Now().Add(ttl)
	}
}

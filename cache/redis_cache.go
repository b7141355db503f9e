package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ammiranda/forest/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements CacheProvider using Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache provider for the server at addr
func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	return &RedisCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

// Initialize checks that the server is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetTrees retrieves the forest from cache if available
func (c *RedisCache) GetTrees(ctx context.Context) ([]*models.Node, bool) {
	data, err := c.client.Get(ctx, forestKey).Bytes()
	if err != nil {
		return nil, false
	}

	var trees []*models.Node
	if err := json.Unmarshal(data, &trees); err != nil {
		return nil, false
	}
	if trees == nil {
		trees = make([]*models.Node, 0)
	}
	return trees, true
}

// SetTrees stores the forest in cache
func (c *RedisCache) SetTrees(ctx context.Context, trees []*models.Node) {
	if trees == nil {
		trees = make([]*models.Node, 0)
	}
	data, err := json.Marshal(trees)
	if err != nil {
		return
	}
	c.client.Set(ctx, forestKey, data, c.ttl)
}

// InvalidateCache removes the forest from cache
func (c *RedisCache) InvalidateCache(ctx context.Context) error {
	return c.client.Del(ctx, forestKey).Err()
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ammiranda/forest/models"
)

// MockCache is a cache provider that records calls, for testing
type MockCache struct {
	mu              sync.RWMutex
	data            []*models.Node
	ttl             time.Duration
	expiry          time.Time
	GetTreesCalls   int
	SetTreesCalls   int
	InvalidateCalls int
	SetTTLCalls     int
	InitCalls       int
	ShouldFail      bool
}

// NewMockCache creates a new mock cache provider
func NewMockCache() *MockCache {
	return &MockCache{
		ttl: 5 * time.Minute,
	}
}

// Initialize performs any necessary setup for the cache provider
func (c *MockCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InitCalls++
	if c.ShouldFail {
		return ErrCacheInitialization
	}
	return nil
}

// GetTrees retrieves the forest from cache if available
func (c *MockCache) GetTrees(ctx context.Context) ([]*models.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetTreesCalls++

	if c.ShouldFail || c.data == nil || time.Now().After(c.expiry) {
		return nil, false
	}
	return cloneTrees(c.data), true
}

// SetTrees stores the forest in cache
func (c *MockCache) SetTrees(ctx context.Context, trees []*models.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetTreesCalls++

	if !c.ShouldFail {
		c.data = cloneTrees(trees)
		if c.data == nil {
			c.data = make([]*models.Node, 0)
		}
		c.expiry = time.Now().Add(c.ttl)
	}
}

// InvalidateCache removes the forest from cache
func (c *MockCache) InvalidateCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InvalidateCalls++

	if c.ShouldFail {
		return ErrCacheUnavailable
	}
	c.data = nil
	c.expiry = time.Time{}
	return nil
}

// SetCacheTTL sets the cache time-to-live duration
func (c *MockCache) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetTTLCalls++

	if !c.ShouldFail {
		c.ttl = ttl
		if c.data != nil {
			c.expiry = time.Now().Add(ttl)
		}
	}
}

// Reset resets all counters and state
func (c *MockCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetTreesCalls = 0
	c.SetTreesCalls = 0
	c.InvalidateCalls = 0
	c.SetTTLCalls = 0
	c.InitCalls = 0
	c.ShouldFail = false
	c.data = nil
	c.expiry = time.Time{}
}

// GetCallCounts returns the number of times each method was called
func (c *MockCache) GetCallCounts() (getTrees, setTrees, invalidate, setTTL, init int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GetTreesCalls, c.SetTreesCalls, c.InvalidateCalls, c.SetTTLCalls, c.InitCalls
}

// SetShouldFail makes the mock cache fail all operations
func (c *MockCache) SetShouldFail(shouldFail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ShouldFail = shouldFail
}

var (
	// ErrCacheInitialization is returned when the mock cache is configured to fail
	ErrCacheInitialization = errors.New("mock cache initialization failed")
	// ErrCacheUnavailable is returned by InvalidateCache when the mock is failing
	ErrCacheUnavailable = errors.New("mock cache unavailable")
)

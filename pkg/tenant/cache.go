package tenant

import (
	"context"
	"sync"
)

// Cache is the interface for connection-record caching implementations.
// A hit must always reflect a value that was valid at some point; staleness
// after out-of-band credential rotation is an accepted tradeoff unless the
// entry is explicitly invalidated.
type Cache interface {
	// Get retrieves a cached record by tenant ID.
	Get(ctx context.Context, tenantID int64) (*ConnectionRecord, bool)

	// Set stores a record.
	Set(ctx context.Context, tenantID int64, rec *ConnectionRecord)

	// Delete removes a record.
	Delete(ctx context.Context, tenantID int64)

	// Close releases any resources held by the cache.
	Close() error
}

// memoryCache is the default in-process cache. Entries have no TTL:
// they live until explicitly invalidated on tenant update or delete.
// The tenant population is small and bounded, so there is no eviction.
type memoryCache struct {
	mu      sync.RWMutex
	records map[int64]*ConnectionRecord
}

// NewMemoryCache creates the default in-memory cache.
func NewMemoryCache() Cache {
	return &memoryCache{records: make(map[int64]*ConnectionRecord)}
}

func (c *memoryCache) Get(ctx context.Context, tenantID int64) (*ConnectionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[tenantID]
	return rec, ok
}

func (c *memoryCache) Set(ctx context.Context, tenantID int64, rec *ConnectionRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[tenantID] = rec
}

func (c *memoryCache) Delete(ctx context.Context, tenantID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, tenantID)
}

func (c *memoryCache) Close() error {
	return nil
}

// noOpCache disables caching. Useful in tests asserting store traffic.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache {
	return &noOpCache{}
}

func (noOpCache) Get(ctx context.Context, tenantID int64) (*ConnectionRecord, bool) {
	return nil, false
}

func (noOpCache) Set(ctx context.Context, tenantID int64, rec *ConnectionRecord) {}

func (noOpCache) Delete(ctx context.Context, tenantID int64) {}

func (noOpCache) Close() error { return nil }

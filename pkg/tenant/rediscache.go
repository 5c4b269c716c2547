package tenant

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tenant:conn:"

// RedisCache shares resolved connection records across service instances.
// Unlike the in-memory cache it accepts an optional TTL, because explicit
// invalidation from one node does not reach entries another node already
// holds; the TTL bounds how long a rotated connection can be served. A TTL
// of zero keeps entries until invalidated, matching the in-memory behavior.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache on an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// cachedRecord is the cache wire form. ConnectionRecord hides the URI from
// JSON to keep connection strings out of API responses; the cache payload
// is internal and must round-trip it.
type cachedRecord struct {
	TenantID     int64     `json:"tenant_id"`
	URI          string    `json:"uri"`
	Database     string    `json:"database"`
	MaxPoolSize  uint64    `json:"max_pool_size"`
	MinPoolSize  uint64    `json:"min_pool_size"`
	RetryWrites  bool      `json:"retry_writes"`
	WriteConcern string    `json:"write_concern"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func redisKey(tenantID int64) string {
	return redisKeyPrefix + strconv.FormatInt(tenantID, 10)
}

// Get retrieves a cached record. Redis errors and corrupt payloads are
// treated as misses — the caller falls through to the central store.
func (c *RedisCache) Get(ctx context.Context, tenantID int64) (*ConnectionRecord, bool) {
	raw, err := c.client.Get(ctx, redisKey(tenantID)).Bytes()
	if err != nil {
		return nil, false
	}

	var cached cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}

	return &ConnectionRecord{
		TenantID:     cached.TenantID,
		URI:          cached.URI,
		Database:     cached.Database,
		MaxPoolSize:  cached.MaxPoolSize,
		MinPoolSize:  cached.MinPoolSize,
		RetryWrites:  cached.RetryWrites,
		WriteConcern: cached.WriteConcern,
		UpdatedAt:    cached.UpdatedAt,
	}, true
}

// Set stores a record. Failures are silently dropped: the cache is an
// optimization, the central store stays authoritative.
func (c *RedisCache) Set(ctx context.Context, tenantID int64, rec *ConnectionRecord) {
	raw, err := json.Marshal(cachedRecord{
		TenantID:     rec.TenantID,
		URI:          rec.URI,
		Database:     rec.Database,
		MaxPoolSize:  rec.MaxPoolSize,
		MinPoolSize:  rec.MinPoolSize,
		RetryWrites:  rec.RetryWrites,
		WriteConcern: rec.WriteConcern,
		UpdatedAt:    rec.UpdatedAt,
	})
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, redisKey(tenantID), raw, c.ttl).Err()
}

// Delete removes a record.
func (c *RedisCache) Delete(ctx context.Context, tenantID int64) {
	_ = c.client.Del(ctx, redisKey(tenantID)).Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (c *RedisCache) Close() error {
	return nil
}

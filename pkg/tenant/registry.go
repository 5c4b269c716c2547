package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Registry maps tenant IDs to their resolved connection records. Lookups
// go to the cache first and fall through to the central store on a miss.
// Concurrent misses for the same tenant may each hit the store; the result
// is idempotent, so the duplicate work is accepted instead of paying for
// single-flight coordination.
type Registry struct {
	store Store
	cache Cache
	log   *slog.Logger
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) RegistryOption {
	return func(r *Registry) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates a registry over the given central store.
// The default cache is in-memory with no TTL.
func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store: store,
		cache: NewMemoryCache(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the connection record for a tenant. ErrTenantNotFound
// means the tenant is unknown — a request-level error, not a system fault.
// Any other error means the central store could not be reached.
func (r *Registry) Resolve(ctx context.Context, tenantID int64) (*ConnectionRecord, error) {
	if rec, ok := r.cache.Get(ctx, tenantID); ok {
		return rec, nil
	}

	rec, err := r.store.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve tenant %d: %w", tenantID, err)
	}

	r.cache.Set(ctx, tenantID, rec)
	return rec, nil
}

// Invalidate drops the cached record for a tenant. Called after tenant
// update or delete so stale connection data is not served.
func (r *Registry) Invalidate(ctx context.Context, tenantID int64) {
	r.cache.Delete(ctx, tenantID)
	r.log.DebugContext(ctx, "tenant connection cache invalidated", "tenant_id", tenantID)
}

// Close releases the underlying cache.
func (r *Registry) Close() error {
	return r.cache.Close()
}

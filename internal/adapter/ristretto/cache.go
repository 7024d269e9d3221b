// Package ristretto implements the tenant lookup cache port using
// dgraph-io/ristretto. The cache sits on the request path between the
// router and the master registry, so a hot tenant costs no registry query.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/port/cache"
)

// TenantCache caches slug-to-registry-record lookups with a TTL.
type TenantCache struct {
	c *ristretto.Cache[string, *tenant.Tenant]
}

var _ cache.TenantCache = (*TenantCache)(nil)

// tenantCost is the approximate in-memory weight of one registry record.
const tenantCost = 512

// New creates a tenant cache. maxCostBytes bounds total memory held by
// cached records.
func New(maxCostBytes int64) (*TenantCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *tenant.Tenant]{
		NumCounters: maxCostBytes / tenantCost * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &TenantCache{c: c}, nil
}

// Get returns the cached record for slug, if present and unexpired.
func (tc *TenantCache) Get(_ context.Context, slug string) (*tenant.Tenant, bool) {
	return tc.c.Get(slug)
}

// Set stores a record under its slug for at most ttl.
func (tc *TenantCache) Set(_ context.Context, slug string, t *tenant.Tenant, ttl time.Duration) {
	tc.c.SetWithTTL(slug, t, tenantCost, ttl)
	// Wait for the set to propagate so a routing decision made right
	// after a provision call sees the record.
	tc.c.Wait()
}

// Delete drops the record for slug. Called on tenant update and removal so
// stale connection parameters never outlive the TTL.
func (tc *TenantCache) Delete(_ context.Context, slug string) {
	tc.c.Del(slug)
}

// Close shuts down the cache and releases resources.
func (tc *TenantCache) Close() {
	tc.c.Close()
}

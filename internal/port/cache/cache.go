// Package cache defines the tenant lookup cache port (interface).
package cache

import (
	"context"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
)

// TenantCache is an in-process cache from routing slug to registry record.
// It sits in front of the master database on the request path; entries are
// TTL-bounded and invalidated when a tenant is updated or removed.
type TenantCache interface {
	Get(ctx context.Context, slug string) (*tenant.Tenant, bool)
	Set(ctx context.Context, slug string, t *tenant.Tenant, ttl time.Duration)
	Delete(ctx context.Context, slug string)
	Close()
}

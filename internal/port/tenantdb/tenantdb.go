// Package tenantdb defines the per-tenant database connection port.
//
// The original single shared "tenant" connection slot was a cross-request
// hazard: one request's rebind could close the connection another request
// was using. The port models the replacement design — a keyed manager
// holding one independently closeable pool per tenant database — so a
// request can only ever observe the pool for the tenant it resolved.
package tenantdb

import (
	"context"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
)

// Conn is a live connection pool bound to exactly one tenant database.
type Conn interface {
	// Ping verifies the tenant database is reachable.
	Ping(ctx context.Context) error

	// Close releases the pool. In-flight queries finish first.
	Close()
}

// Manager resolves a tenant's registry record to its live connection pool,
// opening one lazily on first use and evicting idle pools per policy.
type Manager interface {
	// Get returns the pool for the tenant's database, opening it if
	// needed. Concurrent first requests for the same tenant share a
	// single open. The credentials in t must already be decrypted.
	Get(ctx context.Context, t *tenant.Tenant) (Conn, error)

	// Remove closes and forgets the pool for the given database, if one
	// is open. Called when a tenant is removed so its database can be
	// dropped without lingering connections.
	Remove(host string, port int, dbName string)

	// Close shuts down every pool.
	Close()
}

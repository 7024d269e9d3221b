// Package schema defines the tenant schema application port (interface).
package schema

import (
	"context"
	"fmt"
	"net/url"
)

// ConnInfo identifies the tenant database a migration run should target.
type ConnInfo struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DSN renders the connection info as a PostgreSQL URL.
func (c ConnInfo) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName)
}

// Applier applies a named migration set to a tenant database. The tenant
// set is distinct from the master schema; provisioning must abort when
// application fails, since an un-migrated tenant must never be registered.
type Applier interface {
	Apply(ctx context.Context, conn ConnInfo, migrationSet string) error
}

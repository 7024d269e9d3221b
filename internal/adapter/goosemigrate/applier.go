// Package goosemigrate implements the schema applier port with in-process
// goose, applying the embedded tenant migration set directly against the
// freshly provisioned tenant database. This is the default applier; the
// subprocess variant lives in the migratecli package.
package goosemigrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
)

//go:embed migrations/tenant/*.sql
var tenantMigrations embed.FS

// Applier applies embedded migration sets in-process.
type Applier struct {
	timeout time.Duration
}

var _ schema.Applier = (*Applier)(nil)

// New creates an Applier. timeout bounds one full migration run; there is
// no implicit retry because a partially applied set is not always safely
// re-runnable.
func New(timeout time.Duration) *Applier {
	return &Applier{timeout: timeout}
}

// newProvider builds a migration provider over the embedded tenant set.
// Each provider carries its own dialect and filesystem, so concurrent
// provisioning runs never share goose package state.
func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(tenantMigrations, "migrations/tenant")
	if err != nil {
		return nil, fmt.Errorf("tenant migration set: %w", err)
	}
	return goose.NewProvider(goose.DialectPostgres, db, fsys)
}

// Apply runs all pending migrations of the named set against the tenant
// database. Only the "tenant" set is embedded; asking for any other set is
// an error rather than a silent no-op.
func (a *Applier) Apply(ctx context.Context, conn schema.ConnInfo, migrationSet string) error {
	if migrationSet != "tenant" {
		return fmt.Errorf("unknown migration set %q", migrationSet)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	db, err := sql.Open("pgx", conn.DSN())
	if err != nil {
		return fmt.Errorf("open tenant db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	prov, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("build migration provider: %w", err)
	}
	if _, err := prov.Up(ctx); err != nil {
		return fmt.Errorf("apply tenant schema: %w", err)
	}
	return nil
}

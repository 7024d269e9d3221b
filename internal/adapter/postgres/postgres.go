// Package postgres provides the master PostgreSQL connection pool, the
// tenant registry store, the database provisioner, and the per-tenant
// connection pool manager.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql (needed by goose)
	"github.com/pressly/goose/v3"

	"github.com/adzspec-asad/ai-studio-api/internal/config"
)

//go:embed migrations/master/*.sql
var masterMigrations embed.FS

// NewMasterPool creates the pgxpool connection pool for the master
// database. This pool carries both registry CRUD and the privileged DDL
// the provisioner issues.
func NewMasterPool(ctx context.Context, cfg config.MasterDB) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.MasterDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// RunMasterMigrations applies all pending goose migrations for the master
// schema (tenants registry, system users) from the embedded SQL files.
// Tenant databases have their own migration set applied by the schema
// applier during provisioning.
//
// The master helpers use goose's package-level API and so must not run
// concurrently with each other; callers invoke them from single-threaded
// paths (startup, admin CLI). The tenant applier builds a goose.Provider
// per run and never touches this state.
func RunMasterMigrations(ctx context.Context, dsn string) error {
	goose.SetBaseFS(masterMigrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations/master"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// RollbackMasterMigrations rolls back the last N master migrations.
func RollbackMasterMigrations(ctx context.Context, dsn string, steps int) error {
	goose.SetBaseFS(masterMigrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for rollback: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	for range steps {
		if err := goose.DownContext(ctx, db, "migrations/master"); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	}

	return nil
}

// MasterMigrationVersion returns the current master schema version.
func MasterMigrationVersion(ctx context.Context, dsn string) (int64, error) {
	goose.SetBaseFS(masterMigrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("open db for version: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}

	return version, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes for benign "already exists" outcomes of CREATE ROLE and
// CREATE DATABASE.
const (
	codeDuplicateObject   = "42710" // duplicate_object (roles)
	codeDuplicateDatabase = "42P04" // duplicate_database
)

// Provisioner issues role and database DDL against the master server.
// CREATE DATABASE and CREATE/DROP ROLE cannot run inside a transaction,
// so every statement is individually idempotent instead: retrying a
// half-finished provisioning run converges rather than failing.
type Provisioner struct {
	pool     *pgxpool.Pool
	masterDB string
	log      *slog.Logger
}

// NewProvisioner creates a Provisioner using the privileged master pool.
// masterDB is the master database name used for CONNECT grants.
func NewProvisioner(pool *pgxpool.Pool, masterDB string, log *slog.Logger) *Provisioner {
	return &Provisioner{pool: pool, masterDB: masterDB, log: log}
}

// quoteIdent double-quotes a PostgreSQL identifier. Role and database
// names reach us validated against [a-zA-Z0-9_], but DDL has no parameter
// placeholders, so quoting is still applied.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a string literal for embedding in DDL.
func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

func alreadyExists(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return true
	}
	// Fallback for servers/drivers that only surface the message text.
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// CreateRole ensures a login role exists with the given password. When the
// role already exists the password is re-asserted with ALTER ROLE, so the
// canonical provisioning path always leaves the role matching the
// credentials about to be registered.
func (p *Provisioner) CreateRole(ctx context.Context, name, password string) error {
	create := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s CREATEDB",
		quoteIdent(name), quoteLiteral(password))

	if _, err := p.pool.Exec(ctx, create); err != nil {
		if !alreadyExists(err, codeDuplicateObject) {
			return fmt.Errorf("create role %s: %w", name, err)
		}
		p.log.Debug("role exists, re-asserting password", "role", name)
		alter := fmt.Sprintf("ALTER ROLE %s WITH LOGIN PASSWORD %s CREATEDB",
			quoteIdent(name), quoteLiteral(password))
		if _, err := p.pool.Exec(ctx, alter); err != nil {
			return fmt.Errorf("alter role %s: %w", name, err)
		}
	}

	// The role connects to the master server to own and reach its own
	// database.
	grant := fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s",
		quoteIdent(p.masterDB), quoteIdent(name))
	if _, err := p.pool.Exec(ctx, grant); err != nil {
		return fmt.Errorf("grant connect to %s: %w", name, err)
	}

	return nil
}

// CreateDatabase ensures a UTF8 database owned by owner exists. An already
// existing database is success, which makes provisioning safe to retry.
func (p *Provisioner) CreateDatabase(ctx context.Context, name, owner string) error {
	stmt := fmt.Sprintf("CREATE DATABASE %s WITH OWNER = %s ENCODING = 'UTF8'",
		quoteIdent(name), quoteIdent(owner))

	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		if alreadyExists(err, codeDuplicateDatabase) {
			p.log.Debug("database exists, continuing", "database", name)
			return nil
		}
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase removes the database if it exists. FORCE is not used: live
// connections should be drained by the caller (the tenant pool manager)
// before removal.
func (p *Provisioner) DropDatabase(ctx context.Context, name string) error {
	stmt := fmt.Sprintf("DROP DATABASE IF EXISTS %s", quoteIdent(name))
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}

// DropRole removes the role if it exists.
func (p *Provisioner) DropRole(ctx context.Context, name string) error {
	stmt := fmt.Sprintf("DROP ROLE IF EXISTS %s", quoteIdent(name))
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop role %s: %w", name, err)
	}
	return nil
}

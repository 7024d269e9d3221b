package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
)

const tenantColumns = `id, name, slug, db_host, db_port, db_name, db_user, db_password, status, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.DBHost, &t.DBPort, &t.DBName,
		&t.DBUser, &t.DBPassword, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantBySlug resolves a routing slug to its registry record. A miss is
// ErrNotFound; callers must never substitute a default tenant.
func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant %s: %w", slug, err)
	}
	return t, nil
}

// CreateTenant inserts a new registry row. Slug and (db_host, db_name)
// uniqueness violations surface as ErrConflict.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (id, name, slug, db_host, db_port, db_name, db_user, db_password, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Slug, t.DBHost, t.DBPort, t.DBName, t.DBUser, t.DBPassword, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create tenant %s: %w", t.Slug, domain.ErrConflict)
		}
		return fmt.Errorf("create tenant %s: %w", t.Slug, err)
	}
	return nil
}

// ListTenants returns all tenants ordered by creation time. Ordering by
// (created_at, id) keeps the result stable for keyset pagination if the
// registry grows large.
func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// UpdateTenant mutates name and status only. The db* columns identify the
// provisioned physical database and never change after creation.
func (s *Store) UpdateTenant(ctx context.Context, slug string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`UPDATE tenants
		 SET name = COALESCE(NULLIF($2, ''), name),
		     status = COALESCE(NULLIF($3, ''), status),
		     updated_at = now()
		 WHERE slug = $1
		 RETURNING `+tenantColumns, slug, req.Name, req.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update tenant %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update tenant %s: %w", slug, err)
	}
	return t, nil
}

// DeleteTenant removes the registry row. This is the final step of tenant
// removal; the physical database and role must already be dropped.
func (s *Store) DeleteTenant(ctx context.Context, slug string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", slug, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete tenant %s: %w", slug, domain.ErrNotFound)
	}
	return nil
}

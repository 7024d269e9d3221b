// Package database defines the master-database store port (interface).
package database

import (
	"context"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/user"
)

// Store is the port interface for the master database. The tenant registry
// is the source of truth for request routing; system users authorize
// control-plane operations.
type Store interface {
	// Tenant registry
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	UpdateTenant(ctx context.Context, slug string, req tenant.UpdateRequest) (*tenant.Tenant, error)
	DeleteTenant(ctx context.Context, slug string) error

	// System users
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/port/cache"
	"github.com/adzspec-asad/ai-studio-api/internal/port/database"
	"github.com/adzspec-asad/ai-studio-api/internal/port/messagequeue"
	"github.com/adzspec-asad/ai-studio-api/internal/port/provision"
	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
	"github.com/adzspec-asad/ai-studio-api/internal/port/tenantdb"
	"github.com/adzspec-asad/ai-studio-api/internal/secrets"
)

// tenantMigrationSet names the migration set applied to every tenant
// database, kept separate from the master schema.
const tenantMigrationSet = "tenant"

// TenantService owns the tenant lifecycle: provisioning, routing lookups,
// updates and removal. Provisioning is a resumable sequence of idempotent
// steps (role, database, schema, registry row) rather than a transaction —
// this DDL cannot run transactionally — so re-invoking with the same slug
// after a partial failure converges instead of corrupting state.
type TenantService struct {
	store    database.Store
	prov     provision.Provisioner
	applier  schema.Applier
	pools    tenantdb.Manager
	cache    cache.TenantCache  // may be nil
	queue    messagequeue.Queue // may be nil
	cipher   *secrets.Cipher    // nil means passwords are stored in plaintext
	defaults tenant.Defaults
	cacheTTL time.Duration
	log      *slog.Logger
}

// TenantServiceOpts collects the collaborators of a TenantService.
// Cache, Queue and Cipher are optional.
type TenantServiceOpts struct {
	Store    database.Store
	Prov     provision.Provisioner
	Applier  schema.Applier
	Pools    tenantdb.Manager
	Cache    cache.TenantCache
	Queue    messagequeue.Queue
	Cipher   *secrets.Cipher
	Defaults tenant.Defaults
	CacheTTL time.Duration
	Log      *slog.Logger
}

// NewTenantService creates a TenantService.
func NewTenantService(o TenantServiceOpts) *TenantService {
	return &TenantService{
		store:    o.Store,
		prov:     o.Prov,
		applier:  o.Applier,
		pools:    o.Pools,
		cache:    o.Cache,
		queue:    o.Queue,
		cipher:   o.Cipher,
		defaults: o.Defaults,
		cacheTTL: o.CacheTTL,
		log:      o.Log,
	}
}

// Provision creates a tenant end to end: complete credentials, create the
// role, create the database, apply the tenant schema, then register the
// tenant in the master database. Steps run strictly in that order; a
// failure aborts the remaining steps and surfaces which step failed.
func (s *TenantService) Provision(ctx context.Context, spec tenant.Spec) (*tenant.Tenant, error) {
	spec, err := tenant.Complete(spec, s.defaults)
	if err != nil {
		return nil, err
	}
	if err := tenant.ValidateSpec(spec); err != nil {
		return nil, err
	}

	s.log.Info("provisioning tenant", "slug", spec.Slug, "db_name", spec.DBName, "db_host", spec.DBHost)

	// The role must exist before the database it will own.
	if err := s.prov.CreateRole(ctx, spec.DBUser, spec.DBPassword); err != nil {
		return nil, fmt.Errorf("create role: %w: %w", domain.ErrProvision, err)
	}

	if err := s.prov.CreateDatabase(ctx, spec.DBName, spec.DBUser); err != nil {
		return nil, fmt.Errorf("create database: %w: %w", domain.ErrProvision, err)
	}

	// Never register a tenant whose schema did not fully apply.
	conn := schema.ConnInfo{
		Host:     spec.DBHost,
		Port:     spec.DBPort,
		User:     spec.DBUser,
		Password: spec.DBPassword,
		DBName:   spec.DBName,
	}
	if err := s.applier.Apply(ctx, conn, tenantMigrationSet); err != nil {
		return nil, fmt.Errorf("apply schema: %w: %w", domain.ErrMigration, err)
	}

	storedPassword, err := s.cipher.Encrypt(spec.DBPassword)
	if err != nil {
		return nil, fmt.Errorf("encrypt password: %w", err)
	}

	t := &tenant.Tenant{
		ID:         uuid.NewString(),
		Name:       spec.Name,
		Slug:       spec.Slug,
		DBHost:     spec.DBHost,
		DBPort:     spec.DBPort,
		DBName:     spec.DBName,
		DBUser:     spec.DBUser,
		DBPassword: storedPassword,
		Status:     spec.Status,
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info("tenant provisioned", "slug", t.Slug, "id", t.ID)
	s.publish(ctx, messagequeue.SubjectTenantProvisioned, t)
	return t, nil
}

// Remove tears a tenant down in the mirror order of creation: close any
// open connection pool, drop the database, drop the role, and delete the
// registry row last. Once the database is dropped its contents are gone.
func (s *TenantService) Remove(ctx context.Context, slug string) error {
	t, err := s.store.GetTenantBySlug(ctx, slug)
	if err != nil {
		return err
	}

	s.log.Info("removing tenant", "slug", slug, "db_name", t.DBName)

	// Drain our own connections so the DROP DATABASE does not race them.
	if s.pools != nil {
		s.pools.Remove(t.DBHost, t.DBPort, t.DBName)
	}

	if err := s.prov.DropDatabase(ctx, t.DBName); err != nil {
		return fmt.Errorf("drop database: %w: %w", domain.ErrProvision, err)
	}
	if err := s.prov.DropRole(ctx, t.DBUser); err != nil {
		return fmt.Errorf("drop role: %w: %w", domain.ErrProvision, err)
	}

	// Registry deletion is the final step: a registry row without a
	// database is a routing hazard, the reverse is just an orphan.
	if err := s.store.DeleteTenant(ctx, slug); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, slug)
	}
	s.publish(ctx, messagequeue.SubjectTenantRemoved, t)
	return nil
}

// Get returns a tenant by slug.
func (s *TenantService) Get(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.store.GetTenantBySlug(ctx, slug)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update mutates a tenant's name and status. Database identity fields are
// immutable after provisioning and are not accepted here.
func (s *TenantService) Update(ctx context.Context, slug string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	if err := tenant.ValidateUpdate(req); err != nil {
		return nil, err
	}
	t, err := s.store.UpdateTenant(ctx, slug, req)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, slug)
	}
	s.publish(ctx, messagequeue.SubjectTenantUpdated, t)
	return t, nil
}

// Resolve maps a routing slug to a registry record with a usable (already
// decrypted) database password. It is the router's lookup: hits come from
// the in-process cache, misses from the master database. Inactive tenants
// do not route.
func (s *TenantService) Resolve(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, ok := s.cachedTenant(ctx, slug)
	if !ok {
		var err error
		t, err = s.store.GetTenantBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, slug, t, s.cacheTTL)
		}
	}

	if t.Status != tenant.StatusActive {
		return nil, fmt.Errorf("tenant %s is inactive: %w", slug, domain.ErrNotFound)
	}

	// Decrypt into a copy; the cached record keeps the at-rest form.
	resolved := *t
	password, err := s.cipher.Decrypt(t.DBPassword)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", slug, err)
	}
	resolved.DBPassword = password
	return &resolved, nil
}

func (s *TenantService) cachedTenant(ctx context.Context, slug string) (*tenant.Tenant, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, slug)
}

// publish emits a lifecycle event. Event delivery is best effort: a queue
// outage must not fail a provisioning call that already succeeded.
func (s *TenantService) publish(ctx context.Context, subject string, t *tenant.Tenant) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(messagequeue.TenantEventPayload{
		TenantID: t.ID,
		Slug:     t.Slug,
		DBHost:   t.DBHost,
		DBName:   t.DBName,
		Status:   t.Status,
	})
	if err != nil {
		s.log.Error("marshal tenant event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, payload); err != nil {
		s.log.Warn("publish tenant event", "subject", subject, "slug", t.Slug, "error", err)
	}
}

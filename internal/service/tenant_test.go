package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/user"
	"github.com/adzspec-asad/ai-studio-api/internal/port/database"
	"github.com/adzspec-asad/ai-studio-api/internal/port/provision"
	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
	"github.com/adzspec-asad/ai-studio-api/internal/port/tenantdb"
	"github.com/adzspec-asad/ai-studio-api/internal/secrets"
)

// Ensure the mocks implement their ports at compile time.
var (
	_ database.Store        = (*mockStore)(nil)
	_ provision.Provisioner = (*mockProvisioner)(nil)
	_ schema.Applier        = (*mockApplier)(nil)
	_ tenantdb.Manager      = (*mockPools)(nil)
)

// mockStore is a minimal in-memory master database.
type mockStore struct {
	tenants map[string]*tenant.Tenant
	users   map[string]*user.User
	steps   *[]string

	createTenantErr error
	getTenantErr    error
}

func newMockStore(steps *[]string) *mockStore {
	return &mockStore{
		tenants: make(map[string]*tenant.Tenant),
		users:   make(map[string]*user.User),
		steps:   steps,
	}
}

func (m *mockStore) record(step string) {
	if m.steps != nil {
		*m.steps = append(*m.steps, step)
	}
}

func (m *mockStore) ListTenants(context.Context) ([]tenant.Tenant, error) {
	var out []tenant.Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockStore) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if m.getTenantErr != nil {
		return nil, m.getTenantErr
	}
	t, ok := m.tenants[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	m.record("register")
	if m.createTenantErr != nil {
		return m.createTenantErr
	}
	if _, exists := m.tenants[t.Slug]; exists {
		return domain.ErrConflict
	}
	m.tenants[t.Slug] = t
	return nil
}

func (m *mockStore) UpdateTenant(_ context.Context, slug string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, ok := m.tenants[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) DeleteTenant(_ context.Context, slug string) error {
	m.record("deregister")
	if _, ok := m.tenants[slug]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tenants, slug)
	return nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrConflict
	}
	m.users[u.Email] = u
	return nil
}

func (m *mockStore) ListUsers(context.Context) ([]user.User, error) { return nil, nil }

func (m *mockStore) UpdateUserPassword(_ context.Context, email, hash string) error {
	u, ok := m.users[email]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

// mockProvisioner records DDL calls in order.
type mockProvisioner struct {
	steps *[]string

	createRoleErr error
	createDBErr   error
	dropDBErr     error
}

func (m *mockProvisioner) record(step string) {
	if m.steps != nil {
		*m.steps = append(*m.steps, step)
	}
}

func (m *mockProvisioner) CreateRole(_ context.Context, name, _ string) error {
	m.record("role:" + name)
	return m.createRoleErr
}

func (m *mockProvisioner) CreateDatabase(_ context.Context, name, _ string) error {
	m.record("db:" + name)
	return m.createDBErr
}

func (m *mockProvisioner) DropDatabase(_ context.Context, name string) error {
	m.record("dropdb:" + name)
	return m.dropDBErr
}

func (m *mockProvisioner) DropRole(_ context.Context, name string) error {
	m.record("droprole:" + name)
	return nil
}

type mockApplier struct {
	steps    *[]string
	applyErr error
	lastConn schema.ConnInfo
}

func (m *mockApplier) Apply(_ context.Context, conn schema.ConnInfo, set string) error {
	if m.steps != nil {
		*m.steps = append(*m.steps, "migrate:"+set)
	}
	m.lastConn = conn
	return m.applyErr
}

type mockPools struct {
	steps   *[]string
	removed []string
}

func (m *mockPools) Get(context.Context, *tenant.Tenant) (tenantdb.Conn, error) { return nil, nil }

func (m *mockPools) Remove(host string, port int, dbName string) {
	if m.steps != nil {
		*m.steps = append(*m.steps, "drain:"+dbName)
	}
	m.removed = append(m.removed, dbName)
}

func (m *mockPools) Close() {}

func testService(t *testing.T, steps *[]string) (*TenantService, *mockStore, *mockProvisioner, *mockApplier, *mockPools) {
	t.Helper()
	store := newMockStore(steps)
	prov := &mockProvisioner{steps: steps}
	applier := &mockApplier{steps: steps}
	pools := &mockPools{steps: steps}
	svc := NewTenantService(TenantServiceOpts{
		Store:    store,
		Prov:     prov,
		Applier:  applier,
		Pools:    pools,
		Defaults: tenant.Defaults{DBHost: "127.0.0.1", DBPort: 5432},
		CacheTTL: 30 * time.Second,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, store, prov, applier, pools
}

func TestProvisionRunsStepsInOrder(t *testing.T) {
	var steps []string
	svc, store, _, applier, _ := testService(t, &steps)

	got, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	want := []string{"role:user_acme", "db:tenant_acme", "migrate:tenant", "register"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}

	if got.ID == "" {
		t.Error("expected assigned tenant ID")
	}
	if got.Status != tenant.StatusActive {
		t.Errorf("status = %q", got.Status)
	}
	if _, ok := store.tenants["acme"]; !ok {
		t.Error("tenant not registered")
	}
	if applier.lastConn.DBName != "tenant_acme" {
		t.Errorf("migration targeted %q", applier.lastConn.DBName)
	}
}

func TestProvisionRejectsInvalidSpecBeforeAnyStep(t *testing.T) {
	var steps []string
	svc, _, _, _, _ := testService(t, &steps)

	_, err := svc.Provision(context.Background(), tenant.Spec{Name: "Bad", Slug: "Bad Slug!"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("validation failure must precede provisioning, ran %v", steps)
	}
}

func TestProvisionMigrationFailureAbortsBeforeRegistry(t *testing.T) {
	var steps []string
	svc, store, _, applier, _ := testService(t, &steps)
	applier.applyErr = errors.New("syntax error in 0002")

	_, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"})
	if !errors.Is(err, domain.ErrMigration) {
		t.Fatalf("expected ErrMigration, got %v", err)
	}
	if len(store.tenants) != 0 {
		t.Fatal("un-migrated tenant must not be registered")
	}
	for _, s := range steps {
		if s == "register" {
			t.Fatal("registry step ran after migration failure")
		}
	}
}

func TestProvisionRoleFailureIsProvisioningError(t *testing.T) {
	var steps []string
	svc, _, prov, _, _ := testService(t, &steps)
	prov.createRoleErr = errors.New("permission denied")

	_, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"})
	if !errors.Is(err, domain.ErrProvision) {
		t.Fatalf("expected ErrProvision, got %v", err)
	}
	want := []string{"role:user_acme"}
	if len(steps) != 1 || steps[0] != want[0] {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
}

// Provisioning the same slug twice: the DDL steps absorb "already exists"
// (the mocks model that by succeeding) and the registry surfaces the
// conflict.
func TestProvisionDuplicateSlugSurfacesConflict(t *testing.T) {
	svc, _, _, _, _ := testService(t, nil)

	if _, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"}); err != nil {
		t.Fatalf("first Provision: %v", err)
	}
	_, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRemoveMirrorsCreationOrder(t *testing.T) {
	var steps []string
	svc, _, _, _, pools := testService(t, &steps)

	if _, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"}); err != nil {
		t.Fatal(err)
	}
	steps = steps[:0]

	if err := svc.Remove(context.Background(), "acme"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	want := []string{"drain:tenant_acme", "dropdb:tenant_acme", "droprole:user_acme", "deregister"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}

	if _, err := svc.Get(context.Background(), "acme"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound after removal, got %v", err)
	}
	if len(pools.removed) != 1 {
		t.Error("tenant pool was not drained before drop")
	}
}

func TestRemoveUnknownTenant(t *testing.T) {
	var steps []string
	svc, _, _, _, _ := testService(t, &steps)

	err := svc.Remove(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("no drop may run for an unknown tenant, ran %v", steps)
	}
}

func TestRemoveKeepsRegistryRowWhenDropFails(t *testing.T) {
	svc, store, prov, _, _ := testService(t, nil)

	if _, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"}); err != nil {
		t.Fatal(err)
	}
	prov.dropDBErr = errors.New("database busy")

	err := svc.Remove(context.Background(), "acme")
	if !errors.Is(err, domain.ErrProvision) {
		t.Fatalf("expected ErrProvision, got %v", err)
	}
	if _, ok := store.tenants["acme"]; !ok {
		t.Fatal("registry row must survive a failed drop (deletion is the last step)")
	}
}

func TestUpdateMutatesNameAndStatusOnly(t *testing.T) {
	svc, store, _, _, _ := testService(t, nil)
	if _, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme"}); err != nil {
		t.Fatal(err)
	}
	before := *store.tenants["acme"]

	got, err := svc.Update(context.Background(), "acme", tenant.UpdateRequest{Name: "Acme Inc", Status: tenant.StatusInactive})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Acme Inc" || got.Status != tenant.StatusInactive {
		t.Errorf("update not applied: %+v", got)
	}
	if got.DBName != before.DBName || got.DBUser != before.DBUser {
		t.Error("db identity fields must be immutable")
	}

	if _, err := svc.Update(context.Background(), "acme", tenant.UpdateRequest{Status: "archived"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveDecryptsPassword(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	cipher, err := secrets.NewCipher(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatal(err)
	}

	store := newMockStore(nil)
	svc := NewTenantService(TenantServiceOpts{
		Store:    store,
		Prov:     &mockProvisioner{},
		Applier:  &mockApplier{},
		Pools:    &mockPools{},
		Cipher:   cipher,
		Defaults: tenant.Defaults{DBHost: "127.0.0.1", DBPort: 5432},
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	created, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme", DBPassword: "plain-password-1"})
	if err != nil {
		t.Fatal(err)
	}
	if created.DBPassword == "plain-password-1" {
		t.Fatal("registry must hold the encrypted password")
	}
	if !strings.HasPrefix(created.DBPassword, "aesgcm:") {
		t.Fatalf("stored password not in at-rest form: %q", created.DBPassword)
	}

	resolved, err := svc.Resolve(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.DBPassword != "plain-password-1" {
		t.Fatalf("resolved password = %q", resolved.DBPassword)
	}

	// The stored record keeps the at-rest form.
	if !strings.HasPrefix(store.tenants["acme"].DBPassword, "aesgcm:") {
		t.Fatal("Resolve must not write the plaintext back")
	}
}

func TestResolveInactiveTenantDoesNotRoute(t *testing.T) {
	svc, _, _, _, _ := testService(t, nil)
	if _, err := svc.Provision(context.Background(), tenant.Spec{Name: "Acme", Slug: "acme", Status: tenant.StatusInactive}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Resolve(context.Background(), "acme")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive tenant, got %v", err)
	}
}

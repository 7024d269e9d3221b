// Package middleware provides HTTP middleware for the control plane:
// tenant resolution and pool binding, token authentication and role
// checks.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
	"github.com/adzspec-asad/ai-studio-api/internal/port/tenantdb"
)

// TenantHeader carries an explicit tenant slug on the request.
const TenantHeader = "x-tenant"

type tenantCtxKey struct{}
type tenantConnCtxKey struct{}

// Resolver looks a tenant up by slug. *service.TenantService satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// DefaultExemptRoutes are the paths the control plane serves itself;
// requests to them never resolve a tenant.
var DefaultExemptRoutes = []string{
	"/",
	"/health",
	"/health/liveness",
	"/health/readiness",
	"/api/system/auth/*",
	"/api/system/tenants/*",
	"/api/system/users/*",
}

// ExemptRoutes matches request paths against a route list. Three entry
// forms are supported, checked in a fixed order regardless of how the
// list is written: exact paths first, then "/prefix/*" wildcards, then
// bare "/prefix/" entries which match by prefix for compatibility with
// older route lists. The first match wins.
type ExemptRoutes struct {
	exact    map[string]bool
	wildcard []string
	legacy   []string
}

// NewExemptRoutes compiles the entry list. Entry order within a form is
// preserved but does not affect the result.
func NewExemptRoutes(entries []string) *ExemptRoutes {
	e := &ExemptRoutes{exact: make(map[string]bool, len(entries))}
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry, "/*"):
			e.wildcard = append(e.wildcard, strings.TrimSuffix(entry, "/*"))
		case entry != "/" && strings.HasSuffix(entry, "/"):
			e.legacy = append(e.legacy, entry)
		default:
			e.exact[entry] = true
		}
	}
	return e
}

// Match reports whether path is exempt from tenant resolution.
func (e *ExemptRoutes) Match(path string) bool {
	if e.exact[path] {
		return true
	}
	for _, p := range e.wildcard {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	for _, p := range e.legacy {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Tenant returns middleware that resolves the tenant for each request
// and binds its database pool into the request context. Exempt paths
// pass through untouched. The slug comes from the x-tenant header when
// present, otherwise from the first subdomain label of the Host.
func Tenant(resolver Resolver, pools tenantdb.Manager, exempt *ExemptRoutes, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			slug := TenantSlug(r)
			if slug == "" {
				http.Error(w, `{"error":"tenant not specified"}`, http.StatusBadRequest)
				return
			}

			t, err := resolver.Resolve(r.Context(), slug)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					http.Error(w, `{"error":"unknown tenant"}`, http.StatusNotFound)
					return
				}
				log.Error("tenant resolution failed", "slug", slug, "error", err)
				http.Error(w, `{"error":"tenant resolution failed"}`, http.StatusInternalServerError)
				return
			}

			conn, err := pools.Get(r.Context(), t)
			if err != nil {
				log.Error("tenant database unavailable", "slug", slug, "db", t.DBName, "error", err)
				http.Error(w, `{"error":"tenant database unavailable"}`, http.StatusBadGateway)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, t)
			ctx = context.WithValue(ctx, tenantConnCtxKey{}, conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantSlug extracts the tenant slug from the request: the x-tenant
// header wins, then the first subdomain label of the Host. Bare IPs and
// hosts with fewer than three labels carry no tenant.
func TenantSlug(r *http.Request) string {
	if slug := r.Header.Get(TenantHeader); slug != "" {
		return strings.ToLower(strings.TrimSpace(slug))
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return strings.ToLower(labels[0])
}

// TenantFromContext returns the tenant bound to the request, or nil on
// exempt routes.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*tenant.Tenant)
	return t
}

// TenantConnFromContext returns the tenant database pool bound to the
// request, or nil on exempt routes.
func TenantConnFromContext(ctx context.Context) tenantdb.Conn {
	c, _ := ctx.Value(tenantConnCtxKey{}).(tenantdb.Conn)
	return c
}

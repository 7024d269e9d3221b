package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adzspec-asad/ai-studio-api/internal/middleware"
)

// MountRoutes registers the control-plane API on the given chi router.
// Tenant-scoped application routes mount elsewhere, behind the tenant
// resolution middleware.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service":"ai-studio-api"}`))
	})

	r.Get("/health", h.HealthCheck)
	r.Get("/health/liveness", h.Liveness)
	r.Get("/health/readiness", h.Readiness)

	r.Route("/api/system", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Get("/auth/me", h.GetCurrentUser)

		// Tenant registry: listing allows admins, mutation is
		// superadmin only.
		r.Route("/tenants", func(r chi.Router) {
			r.With(middleware.RequireTenantView).Get("/", h.ListTenants)
			r.With(middleware.RequireTenantView).Get("/{slug}", h.GetTenant)
			r.With(middleware.RequireTenantManage).Post("/", h.CreateTenant)
			r.With(middleware.RequireTenantManage).Put("/{slug}", h.UpdateTenant)
			r.With(middleware.RequireTenantManage).Delete("/{slug}", h.DeleteTenant)
		})

		// System users (superadmin only)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireTenantManage)
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
		})
	})
}

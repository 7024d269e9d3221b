package http

import (
	"log/slog"
	"net/http"

	"github.com/adzspec-asad/ai-studio-api/internal/middleware"
	"github.com/adzspec-asad/ai-studio-api/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	Tenants *service.TenantService
	Auth    *service.AuthService
	Health  *service.HealthService
	Log     *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(tenants *service.TenantService, auth *service.AuthService, health *service.HealthService, log *slog.Logger) *Handlers {
	return &Handlers{Tenants: tenants, Auth: auth, Health: health, Log: log}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.Health.Readiness(r.Context())
	status := http.StatusOK
	if st.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

// Liveness handles GET /health/liveness
func (h *Handlers) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Health.Liveness())
}

// Readiness handles GET /health/readiness
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	h.HealthCheck(w, r)
}

// TenantPing handles GET /api/ping on tenant-scoped routes. It answers
// against the database pool the resolver bound to this request, so a
// 200 proves end-to-end routing for the calling tenant.
func (h *Handlers) TenantPing(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())
	conn := middleware.TenantConnFromContext(r.Context())
	if t == nil || conn == nil {
		writeError(w, http.StatusBadRequest, "tenant not specified")
		return
	}
	if err := conn.Ping(r.Context()); err != nil {
		h.Log.Error("tenant ping failed", "tenant", t.Slug, "error", err)
		writeError(w, http.StatusBadGateway, "tenant database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"tenant":   t.Slug,
		"database": t.DBName,
	})
}

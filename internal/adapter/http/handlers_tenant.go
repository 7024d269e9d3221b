package http

import (
	"net/http"

	"github.com/adzspec-asad/ai-studio-api/internal/domain/tenant"
)

// ListTenants handles GET /api/system/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to list tenants")
		return
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

// GetTenant handles GET /api/system/tenants/{slug}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.Get(r.Context(), urlParam(r, "slug"))
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTenant handles POST /api/system/tenants. The tenant database,
// role and schema are provisioned before the registry row is written,
// so a 201 means the tenant is ready to serve requests.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	spec, ok := readJSON[tenant.Spec](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	t, err := h.Tenants.Provision(r.Context(), spec)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTenant handles PUT /api/system/tenants/{slug}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.UpdateRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	t, err := h.Tenants.Update(r.Context(), urlParam(r, "slug"), req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTenant handles DELETE /api/system/tenants/{slug}
func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.Tenants.Remove(r.Context(), urlParam(r, "slug")); err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

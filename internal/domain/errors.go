// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness violation (slug or physical database
// already claimed by another tenant).
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates a malformed request that was rejected before any
// side effect ran.
var ErrValidation = errors.New("validation failed")

// ErrProvision indicates a failure while creating or dropping a tenant's
// database role or database, beyond the benign "already exists" cases.
var ErrProvision = errors.New("provisioning failed")

// ErrMigration indicates the tenant schema could not be applied. A tenant
// must never be registered with an un-migrated database.
var ErrMigration = errors.New("migration failed")

// ErrNoTenant indicates a non-exempt request carried no tenant identifier
// in either the x-tenant header or the host's subdomain. Distinct from
// ErrNotFound, which means a tenant was named but is unknown.
var ErrNoTenant = errors.New("tenant not specified")

// Package tenant defines the tenant domain model for database-per-tenant
// multi-tenancy. Each tenant owns an isolated PostgreSQL database and role;
// the master registry records where that database lives.
package tenant

import "time"

// Status values for a tenant record.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Tenant is the durable registry record for one provisioned tenant.
type Tenant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	DBHost     string    `json:"db_host"`
	DBPort     int       `json:"db_port"`
	DBName     string    `json:"db_name"`
	DBUser     string    `json:"db_user"`
	DBPassword string    `json:"-"` // never serialized in API responses
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Spec holds the fields accepted when creating a new tenant. Every field
// except Name and Slug may be left empty and is completed by Complete.
type Spec struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	DBHost     string `json:"db_host,omitempty"`
	DBPort     int    `json:"db_port,omitempty"`
	DBName     string `json:"db_name,omitempty"`
	DBUser     string `json:"db_user,omitempty"`
	DBPassword string `json:"db_password,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UpdateRequest holds the fields that can change after provisioning.
// The db* fields identify a physical database and are immutable.
type UpdateRequest struct {
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
}

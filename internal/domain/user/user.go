// Package user defines the system-user domain model. System users live in
// the master database and manage tenants; they are unrelated to whatever
// accounts a tenant application keeps in its own database.
package user

import (
	"errors"
	"net/mail"
	"time"
)

// Role represents the authorization level of a system user.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleSupport    Role = "support"
)

// ValidRoles is the set of all valid system-user roles.
var ValidRoles = map[Role]bool{
	RoleSuperadmin: true,
	RoleAdmin:      true,
	RoleSupport:    true,
}

// CanManageTenants reports whether the role may create, update or remove
// tenants. Listing and viewing additionally allow admins.
func (r Role) CanManageTenants() bool { return r == RoleSuperadmin }

// CanViewTenants reports whether the role may list tenants and read
// tenant details.
func (r Role) CanViewTenants() bool { return r == RoleSuperadmin || r == RoleAdmin }

// User represents a system-level account in the master database.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the input for registering a new system user.
type CreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role")
	}
	return nil
}

// Package provision defines the database provisioner port (interface).
package provision

import "context"

// Provisioner issues privileged administrative statements against the
// master database server. Implementations must be idempotent: "already
// exists" on create and "does not exist" on drop are absorbed, never
// surfaced as errors.
type Provisioner interface {
	// CreateRole ensures a login role exists with the given password,
	// CONNECT on the master database, and the CREATEDB privilege. If the
	// role already exists its password is re-asserted via ALTER ROLE.
	CreateRole(ctx context.Context, name, password string) error

	// CreateDatabase ensures a UTF8 database exists owned by the given
	// role. An existing database is treated as success.
	CreateDatabase(ctx context.Context, name, owner string) error

	// DropDatabase removes the database if it exists.
	DropDatabase(ctx context.Context, name string) error

	// DropRole removes the role if it exists.
	DropRole(ctx context.Context, name string) error
}

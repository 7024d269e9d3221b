// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing tenant lifecycle events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Drain gracefully flushes pending messages before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects for tenant lifecycle events.
const (
	SubjectTenantProvisioned = "tenants.provisioned"
	SubjectTenantUpdated     = "tenants.updated"
	SubjectTenantRemoved     = "tenants.removed"
)

// TenantEventPayload is the schema for tenants.* messages.
type TenantEventPayload struct {
	TenantID string `json:"tenant_id"`
	Slug     string `json:"slug"`
	DBHost   string `json:"db_host"`
	DBName   string `json:"db_name"`
	Status   string `json:"status,omitempty"`
}

// Package migratecli implements the schema applier port by invoking the
// goose CLI as a subprocess, for deployments that keep tenant migration
// files on disk next to the binary instead of embedded.
package migratecli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
)

// Applier shells out to the goose binary. The migration subprocess is the
// longest-latency step of provisioning, so it runs under a generous
// timeout and is never retried implicitly.
type Applier struct {
	bin       string // goose executable
	tenantDir string // directory of the "tenant" migration set
	timeout   time.Duration
}

var _ schema.Applier = (*Applier)(nil)

// New creates an Applier invoking bin with the migration set rooted at
// tenantDir.
func New(bin, tenantDir string, timeout time.Duration) *Applier {
	return &Applier{bin: bin, tenantDir: tenantDir, timeout: timeout}
}

// Apply runs `goose -dir <set dir> postgres <dsn> up` against the tenant
// database, inheriting this process's stdout and stderr so migration
// output stays visible in the service logs. Any non-zero exit is a hard
// failure.
func (a *Applier) Apply(ctx context.Context, conn schema.ConnInfo, migrationSet string) error {
	if migrationSet != "tenant" {
		return fmt.Errorf("unknown migration set %q", migrationSet)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.bin, a.args(conn)...) //nolint:gosec // G204: bin and dir come from operator config
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("tenant migration timed out after %s: %w", a.timeout, err)
		}
		return fmt.Errorf("tenant migration failed: %w", err)
	}
	return nil
}

// args builds the goose invocation for the tenant set.
func (a *Applier) args(conn schema.ConnInfo) []string {
	return []string{"-dir", a.tenantDir, "postgres", conn.DSN(), "up"}
}

package migratecli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/port/schema"
)

var testConn = schema.ConnInfo{
	Host:     "localhost",
	Port:     5432,
	User:     "user_acme",
	Password: "p@ss word",
	DBName:   "tenant_acme",
}

func TestArgs(t *testing.T) {
	a := New("goose", "migrations/tenant", time.Minute)
	args := a.args(testConn)

	want := []string{"-dir", "migrations/tenant", "postgres", testConn.DSN(), "up"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := testConn.DSN()
	if !strings.Contains(dsn, "p%40ss+word") && !strings.Contains(dsn, "p%40ss%20word") {
		t.Errorf("password not escaped in dsn: %s", dsn)
	}
	if !strings.HasSuffix(dsn, "/tenant_acme?sslmode=disable") {
		t.Errorf("unexpected dsn shape: %s", dsn)
	}
}

func TestApplyRejectsUnknownSet(t *testing.T) {
	a := New("goose", "migrations/tenant", time.Minute)
	if err := a.Apply(context.Background(), testConn, "master"); err == nil {
		t.Fatal("expected error for non-tenant migration set")
	}
}

func TestApplySurfacesSubprocessFailure(t *testing.T) {
	// "false" exits non-zero; any non-zero exit must be a hard failure.
	a := New("false", "migrations/tenant", time.Minute)
	if err := a.Apply(context.Background(), testConn, "tenant"); err == nil {
		t.Fatal("expected error from failing subprocess")
	}
}

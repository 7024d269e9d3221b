package secrets_test

import (
	"errors"
	"testing"

	"github.com/adzspec-asad/ai-studio-api/internal/secrets"
)

func TestNewVault_InitialLoad(t *testing.T) {
	v, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"KEY_A": "val_a"}, nil
	})
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}
	if got := v.Get("KEY_A"); got != "val_a" {
		t.Fatalf("expected 'val_a', got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty for missing key, got %q", got)
	}
}

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVault_ReloadKeepsOldValuesOnError(t *testing.T) {
	fail := false
	v, err := secrets.NewVault(func() (map[string]string, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return map[string]string{"K": "v1"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	fail = true
	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("K"); got != "v1" {
		t.Fatalf("reload error must preserve values, got %q", got)
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("VAULT_TEST_KEY", "present")
	loader := secrets.EnvLoader("VAULT_TEST_KEY", "VAULT_TEST_MISSING")
	vals, err := loader()
	if err != nil {
		t.Fatal(err)
	}
	if vals["VAULT_TEST_KEY"] != "present" {
		t.Fatalf("got %q", vals["VAULT_TEST_KEY"])
	}
	if _, ok := vals["VAULT_TEST_MISSING"]; ok {
		t.Fatal("missing env var must be omitted")
	}
}

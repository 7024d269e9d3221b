package tenant

import (
	"strings"
	"testing"
)

var testDefaults = Defaults{DBHost: "127.0.0.1", DBPort: 5432}

func TestCompleteDerivesFromSlug(t *testing.T) {
	got, err := Complete(Spec{Name: "Acme Corp", Slug: "acme"}, testDefaults)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.DBName != "tenant_acme" {
		t.Errorf("DBName = %q, want tenant_acme", got.DBName)
	}
	if got.DBUser != "user_acme" {
		t.Errorf("DBUser = %q, want user_acme", got.DBUser)
	}
	if len(got.DBPassword) != passwordLength {
		t.Errorf("password length = %d, want %d", len(got.DBPassword), passwordLength)
	}
	if got.DBHost != "127.0.0.1" || got.DBPort != 5432 {
		t.Errorf("host/port = %s:%d, want master defaults", got.DBHost, got.DBPort)
	}
	if got.Status != StatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
}

func TestCompleteSanitizesSlug(t *testing.T) {
	got, err := Complete(Spec{Name: "X", Slug: "my-shop-2"}, testDefaults)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Hyphens are not legal in database identifiers and must be stripped.
	if got.DBName != "tenant_myshop2" {
		t.Errorf("DBName = %q, want tenant_myshop2", got.DBName)
	}
	if got.DBUser != "user_myshop2" {
		t.Errorf("DBUser = %q, want user_myshop2", got.DBUser)
	}
}

func TestCompletePreservesExplicitFields(t *testing.T) {
	in := Spec{
		Name:       "Custom",
		Slug:       "custom",
		DBHost:     "db.internal",
		DBPort:     5433,
		DBName:     "custom_db",
		DBUser:     "custom_user",
		DBPassword: "custom_password_123",
		Status:     StatusInactive,
	}
	got, err := Complete(in, testDefaults)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != in {
		t.Errorf("Complete mutated explicit fields: got %+v", got)
	}
}

func TestCompleteSlugFallback(t *testing.T) {
	got, err := Complete(Spec{}, testDefaults)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.HasPrefix(got.Slug, "tenant-") {
		t.Errorf("fallback slug = %q, want tenant-<unix> form", got.Slug)
	}
	if err := ValidateSlug(got.Slug); err != nil {
		t.Errorf("fallback slug %q fails validation: %v", got.Slug, err)
	}
}

func TestCompletedSpecAlwaysValidates(t *testing.T) {
	partials := []Spec{
		{Name: "A", Slug: "aa"},
		{Name: "B", Slug: "b-2"},
		{Slug: "with-password", DBPassword: "longenough"},
		{Name: "C", Slug: "c-host", DBHost: "10.0.0.9", DBPort: 6432},
	}
	for _, p := range partials {
		got, err := Complete(p, testDefaults)
		if err != nil {
			t.Fatalf("Complete(%+v): %v", p, err)
		}
		if err := ValidateSpec(got); err != nil {
			t.Errorf("completed spec %+v fails validation: %v", got, err)
		}
	}
}

func TestGeneratePasswordAlphabet(t *testing.T) {
	for range 50 {
		pw, err := generatePassword()
		if err != nil {
			t.Fatalf("generatePassword: %v", err)
		}
		for _, c := range pw {
			if !strings.ContainsRune(passwordAlphabet, c) {
				t.Fatalf("password %q contains %q outside alphabet", pw, c)
			}
		}
	}
}

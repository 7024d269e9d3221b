package tenant

import (
	"errors"
	"testing"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
)

func validSpec() Spec {
	return Spec{
		Name:       "Acme",
		Slug:       "acme",
		DBHost:     "localhost",
		DBPort:     5432,
		DBName:     "tenant_acme",
		DBUser:     "user_acme",
		DBPassword: "s3cret-password!",
		Status:     StatusActive,
	}
}

func TestValidateSpec(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Spec)
		ok     bool
	}{
		{"valid", func(*Spec) {}, true},
		{"empty name", func(s *Spec) { s.Name = "" }, false},
		{"slug too short", func(s *Spec) { s.Slug = "a" }, false},
		{"slug uppercase", func(s *Spec) { s.Slug = "Acme" }, false},
		{"slug with spaces", func(s *Spec) { s.Slug = "my tenant" }, false},
		{"port zero", func(s *Spec) { s.DBPort = 0 }, false},
		{"port too large", func(s *Spec) { s.DBPort = 70000 }, false},
		{"db name with hyphen", func(s *Spec) { s.DBName = "tenant-acme" }, false},
		{"db user empty", func(s *Spec) { s.DBUser = "" }, false},
		{"password too short", func(s *Spec) { s.DBPassword = "short" }, false},
		{"bad status", func(s *Spec) { s.Status = "paused" }, false},
		{"inactive status", func(s *Spec) { s.Status = StatusInactive }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSpec()
			tc.mutate(&s)
			err := ValidateSpec(s)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	if err := ValidateUpdate(UpdateRequest{Name: "New Name", Status: StatusInactive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateUpdate(UpdateRequest{}); err != nil {
		t.Fatalf("empty update should be valid: %v", err)
	}
	err := ValidateUpdate(UpdateRequest{Status: "deleted"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

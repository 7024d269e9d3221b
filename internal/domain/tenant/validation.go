package tenant

import (
	"fmt"
	"regexp"

	"github.com/adzspec-asad/ai-studio-api/internal/domain"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
	identPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ValidateSlug checks the routing slug: 2-50 chars of [a-z0-9-].
func ValidateSlug(slug string) error {
	if len(slug) < 2 || len(slug) > 50 {
		return fmt.Errorf("slug must be 2-50 characters: %w", domain.ErrValidation)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug %q must contain only lowercase letters, digits and hyphens: %w", slug, domain.ErrValidation)
	}
	return nil
}

// ValidateSpec validates a completed tenant spec. Call after Complete so
// every field is populated.
func ValidateSpec(s Spec) error {
	if s.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(s.Name) > 100 {
		return fmt.Errorf("name exceeds 100 characters: %w", domain.ErrValidation)
	}
	if err := ValidateSlug(s.Slug); err != nil {
		return err
	}
	if s.DBHost == "" {
		return fmt.Errorf("db_host is required: %w", domain.ErrValidation)
	}
	if s.DBPort < 1 || s.DBPort > 65535 {
		return fmt.Errorf("db_port %d out of range 1-65535: %w", s.DBPort, domain.ErrValidation)
	}
	for field, v := range map[string]string{"db_name": s.DBName, "db_user": s.DBUser} {
		if len(v) < 1 || len(v) > 63 {
			return fmt.Errorf("%s must be 1-63 characters: %w", field, domain.ErrValidation)
		}
		if !identPattern.MatchString(v) {
			return fmt.Errorf("%s %q must contain only letters, digits and underscores: %w", field, v, domain.ErrValidation)
		}
	}
	if len(s.DBPassword) < 8 {
		return fmt.Errorf("db_password must be at least 8 characters: %w", domain.ErrValidation)
	}
	if s.Status != StatusActive && s.Status != StatusInactive {
		return fmt.Errorf("status %q must be %q or %q: %w", s.Status, StatusActive, StatusInactive, domain.ErrValidation)
	}
	return nil
}

// ValidateUpdate validates a post-creation update. Only name and status are
// mutable; the physical database identity never changes.
func ValidateUpdate(req UpdateRequest) error {
	if req.Name != "" && len(req.Name) > 100 {
		return fmt.Errorf("name exceeds 100 characters: %w", domain.ErrValidation)
	}
	if req.Status != "" && req.Status != StatusActive && req.Status != StatusInactive {
		return fmt.Errorf("status %q must be %q or %q: %w", req.Status, StatusActive, StatusInactive, domain.ErrValidation)
	}
	return nil
}

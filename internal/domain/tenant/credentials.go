package tenant

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// passwordAlphabet is 62 alphanumerics plus 8 symbols.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// passwordLength for generated tenant database passwords.
const passwordLength = 16

// Defaults supplies the master database server's own address, used when a
// spec does not override where the tenant database should live.
type Defaults struct {
	DBHost string
	DBPort int
}

// Complete fills every empty field of a partial tenant spec. It is a pure
// function of the input and defaults (plus the random source for the
// password) and performs no I/O against the database.
//
// Derivations:
//   - slug: timestamp fallback "tenant-<unix>" — only probabilistically
//     unique, so callers wanting a stable slug must supply one.
//   - db name/user: the slug stripped to [a-zA-Z0-9_], prefixed with
//     "tenant_" / "user_".
//   - password: 16 characters drawn uniformly from a 70-symbol alphabet
//     via crypto/rand.
func Complete(s Spec, d Defaults) (Spec, error) {
	if s.Slug == "" {
		s.Slug = fmt.Sprintf("tenant-%d", time.Now().Unix())
	}
	if s.Name == "" {
		s.Name = s.Slug
	}
	if s.DBName == "" {
		s.DBName = "tenant_" + sanitizeIdent(s.Slug)
	}
	if s.DBUser == "" {
		s.DBUser = "user_" + sanitizeIdent(s.Slug)
	}
	if s.DBPassword == "" {
		pw, err := generatePassword()
		if err != nil {
			return Spec{}, fmt.Errorf("generate db password: %w", err)
		}
		s.DBPassword = pw
	}
	if s.DBHost == "" {
		s.DBHost = d.DBHost
	}
	if s.DBPort == 0 {
		s.DBPort = d.DBPort
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return s, nil
}

// sanitizeIdent strips every character outside [a-zA-Z0-9_].
func sanitizeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// generatePassword draws passwordLength characters uniformly from
// passwordAlphabet using a cryptographically secure source.
func generatePassword() (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, passwordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}

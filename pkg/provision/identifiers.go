package provision

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	identifierPrefix  = "tenant_"
	identifierMaxBase = 40 // before prefix and suffix; PostgreSQL caps names at 63 bytes
	suffixBytes       = 3  // 6 hex characters
)

// databaseIdentifier derives a database/role name from a school's
// display name: lowercased, restricted to [a-z0-9_], prefixed with
// "tenant_" and suffixed with random hex so two schools with the same
// name cannot collide. Returns "" when the name contains nothing
// usable.
//
// The restricted character set is the whole sanitization story: these
// identifiers are interpolated into DDL, and they originate from
// user-supplied school names.
func databaseIdentifier(name string) (string, error) {
	var b strings.Builder
	lastUnderscore := true // trims leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= identifierMaxBase {
			break
		}
	}

	base := strings.Trim(b.String(), "_")
	if base == "" {
		return "", ErrInvalidTenantName
	}

	suffix := make([]byte, suffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return identifierPrefix + base + "_" + hex.EncodeToString(suffix), nil
}

// isSafeIdentifier reports whether an identifier consists solely of the
// restricted character set produced by databaseIdentifier. Teardown
// paths re-check it before interpolating names read back from the
// registry.
func isSafeIdentifier(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// generatePassword returns a random credential for a new tenant role.
func generatePassword() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

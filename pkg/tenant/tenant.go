package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of administrative tenant states.
// Requests for a suspended tenant are rejected at the gate before
// any connection to the tenant database is opened.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Tenant is a registry record for one school. Each tenant owns a
// dedicated database and a dedicated database role scoped to it.
//
// EncryptedPassword holds the AES-GCM ciphertext of the database role
// password as produced by pkg/secrets. The plaintext exists only inside
// the connection router immediately before a pool is built; the field is
// excluded from JSON so it can never leak through an API response.
type Tenant struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	DatabaseName      string    `json:"-"`
	DatabaseUser      string    `json:"-"`
	EncryptedPassword string    `json:"-"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Active reports whether the tenant accepts traffic.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// Domain maps one hostname to its owning tenant. A tenant may have any
// number of domains but at most one marked primary.
type Domain struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Domain    string    `json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

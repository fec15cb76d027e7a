package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches the lookup key.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrDomainNotFound is returned when a hostname maps to no tenant
	// and no central domain. The gate translates it to a 404.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrTenantSuspended is returned for resolved but administratively
	// blocked tenants. The gate translates it to a 403.
	ErrTenantSuspended = errors.New("tenant is suspended")

	// ErrRegistryUnavailable is returned when the central registry
	// cannot be reached. Distinct from ErrDomainNotFound so callers can
	// answer 503 instead of 404.
	ErrRegistryUnavailable = errors.New("tenant registry unavailable")

	// ErrDuplicateDomain is returned when creating a domain string that
	// already belongs to a tenant.
	ErrDuplicateDomain = errors.New("domain already registered")

	// ErrDuplicateDatabaseName is returned when a tenant row would reuse
	// an existing database name.
	ErrDuplicateDatabaseName = errors.New("database name already in use")

	// ErrNoTenantInContext is returned when request-scoped code expects
	// a bound tenant and none is present.
	ErrNoTenantInContext = errors.New("no tenant in context")
)

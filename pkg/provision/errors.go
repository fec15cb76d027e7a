package provision

import "errors"

var (
	// ErrProvisioningFailed wraps any failure while creating a tenant's
	// database, role, schema or seed data. By the time it is returned,
	// best-effort teardown of the partial artifacts has already run.
	ErrProvisioningFailed = errors.New("tenant provisioning failed")

	// ErrManualCleanupRequired is joined onto a provisioning or deletion
	// error when teardown itself failed, meaning residual infrastructure
	// (a database or role) may still exist and needs operator attention.
	ErrManualCleanupRequired = errors.New("manual cleanup required: residual tenant infrastructure may remain")

	// ErrDeletionFailed wraps any failure while destroying a tenant.
	// Never swallowed: the registry row is only removed after all
	// infrastructure is confirmed gone.
	ErrDeletionFailed = errors.New("tenant deletion failed")

	// ErrInvalidTenantName is returned when a school name yields no
	// usable database identifier.
	ErrInvalidTenantName = errors.New("invalid tenant name")

	// ErrInvalidDomain is returned when the requested hostname is empty
	// or malformed.
	ErrInvalidDomain = errors.New("invalid tenant domain")
)

// Package provision creates and destroys the physical infrastructure
// behind a tenant: its database, its dedicated login role, its schema,
// and its seeded administrator.
//
// The Provisioner orchestrates; the Infra interface executes. The
// production Infra (PgInfra) runs under a privileged credential
// supplied through PROVISION_PG_CONN_URL — a different credential from
// the one serving ordinary traffic, which holds no CREATE/DROP rights
// at all. Tenant roles themselves are created with every escalation
// path removed: LOGIN only, scoped to one database, with CONNECT
// revoked from PUBLIC.
//
// Provision is atomic from the caller's perspective. Failure at any
// step tears the partial artifacts down before returning; when even the
// teardown fails, the error carries ErrManualCleanupRequired so the
// condition is impossible to mistake for a clean failure. Deletion runs
// the other way around and removes the registry row last, because the
// credential needed to manage the infrastructure lives on that row.
//
// Database and role names are derived from user-supplied school names,
// restricted to [a-z0-9_], length-capped and suffixed with random hex
// before they are ever interpolated into DDL.
package provision

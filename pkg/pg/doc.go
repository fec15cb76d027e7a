// Package pg wraps pgx/v5 connection pooling, goose/v3 migrations and
// common PostgreSQL error classification for the rest of the toolkit.
//
// Three pools exist in a running deployment, all built through Connect:
//
//   - the central registry pool (tenants and domains tables),
//   - per-tenant pools managed by pkg/router,
//   - the privileged provisioning pool held by pkg/provision.
//
// Connect retries with linear backoff and pings before returning, so a
// pool in hand is a pool that has authenticated at least once. Migrate
// and MigrateDir run goose migration sets; MigrateDir is what the
// provisioner points at a freshly created tenant database.
//
// The SQLSTATE helpers (IsDuplicateKeyError, IsInvalidCatalogError,
// IsAuthenticationError, ...) let callers branch on error class without
// scattering pgconn unwrapping through business code.
package pg

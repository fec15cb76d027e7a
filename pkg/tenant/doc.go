// Package tenant implements the registry and domain-resolution layer of
// the multi-tenant core: tenant records, their domain mappings, and the
// cached hostname→tenant lookup every request starts with.
//
// # Data model
//
// A Tenant row describes one school: display name, the name of its
// dedicated database, the dedicated database role, the AES-GCM
// ciphertext of that role's password, and an administrative status.
// A Domain row maps exactly one hostname to its owning tenant; a tenant
// may hold many domains with at most one marked primary.
//
// Credentials never leave the registry in plaintext. The ciphertext is
// decrypted by the connection router (pkg/router) immediately before a
// pool is constructed and nowhere else.
//
// # Resolution
//
// Resolver maps an inbound Host header to a Resolution:
//
//	res, err := resolver.Resolve(ctx, r.Host)
//	switch {
//	case err != nil:
//		// ErrDomainNotFound → 404, ErrRegistryUnavailable → 503
//	case res.Central:
//		// administrative hostname, bind the central database
//	default:
//		// res.Tenant is the resolved school
//	}
//
// Lookups are served from a bounded-TTL cache (in-memory by default,
// Redis-backed via NewRedisCache for multi-instance deployments); a miss
// costs one registry round-trip. Central hostnames are short-circuited
// before the cache, so they can never be shadowed by a tenant domain.
//
// # Context carriage
//
// The resolved tenant travels with the request context via WithTenant /
// FromContext. There is no package-level "current tenant": two requests
// bound to different schools share nothing, which is what makes the
// isolation guarantee hold under concurrency.
package tenant

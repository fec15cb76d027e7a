// Package gate is the per-request orchestration in front of every
// tenant-aware route: resolve the Host header to a school, verify the
// school may receive traffic, bind its database connection, and release
// that binding when the request ends.
//
// The gate is a small state machine. A request starts Unresolved and
// ends in exactly one of CentralBound, TenantBound or Rejected:
//
//	404 — host matches neither a central domain nor a tenant domain
//	403 — tenant resolved but suspended (its database is never dialed)
//	503 — registry unreachable, credential undecryptable, or tenant
//	      database unreachable
//
// Every transition is logged with tenant id (when resolved), host,
// client ip, method and path. Mount it once, ahead of the business
// routes:
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//	r.Use(gate.Middleware(resolver, rt, gate.WithLogger(log)))
package gate

// Package router binds request execution to tenant databases.
//
// A Router owns a cache of per-tenant pgx pools plus a reference to the
// shared central pool. Bind decrypts the tenant's stored credential,
// builds (or reuses) the pool for that tenant's database, verifies
// reachability with a ping, and returns a Conn — a request-scoped
// handle carried in the context:
//
//	conn, err := rt.Bind(ctx, t)
//	if err != nil { /* ErrConnectionUnavailable → 503 */ }
//	defer conn.Release()
//	ctx = router.WithConn(ctx, conn)
//
// The deliberate absence in this package is any process-wide "current
// connection". Two concurrent requests bound to different schools hold
// two independent Conn values in two independent contexts; there is
// nothing shared for them to race on, which is the isolation guarantee
// the rest of the application builds on. Release is idempotent and is
// deferred at the gate boundary, so bindings are returned even when a
// handler panics or the request is aborted.
//
// Pools are cached per tenant and evicted after PoolIdleTTL without
// use, or immediately via Evict after credential rotation or tenant
// deletion. An evicted pool closes once its last in-flight binding is
// released.
package router

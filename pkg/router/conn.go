package router

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is a request-scoped connection binding: the tenant it belongs to
// and the pool serving that tenant's database. A Conn is owned by
// exactly one unit of execution and must be released when that unit
// ends; it is never shared between concurrent requests and never
// rebound to a different tenant.
type Conn struct {
	tenantID uuid.UUID // zero value for the central binding
	pool     *pgxpool.Pool

	mu       sync.Mutex
	released bool
	release  func()
}

// NewConn builds a connection handle. Exposed so tests and alternative
// routers can construct bindings; application code receives handles
// from Router.Bind and Router.BindCentral.
func NewConn(tenantID uuid.UUID, pool *pgxpool.Pool, release func()) *Conn {
	return &Conn{tenantID: tenantID, pool: pool, release: release}
}

// TenantID returns the bound tenant id, or the zero UUID for a central
// binding.
func (c *Conn) TenantID() uuid.UUID {
	return c.tenantID
}

// Central reports whether this handle is bound to the shared
// administrative database rather than a tenant database.
func (c *Conn) Central() bool {
	return c.tenantID == uuid.Nil
}

// Pool returns the underlying pgx pool for query execution. Panics if
// the handle was already released: a query after release would race a
// rebind and could land in the wrong database.
func (c *Conn) Pool() *pgxpool.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		panic("router: use of released connection handle")
	}
	return c.pool
}

// Release returns the binding. Idempotent, so it is safe to defer at
// the request boundary and also call on early-exit paths.
func (c *Conn) Release() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	release := c.release
	c.mu.Unlock()

	if release != nil {
		release()
	}
}

// connKey is a private context key type for the bound connection.
type connKey struct{}

// WithConn returns a context carrying the request's bound connection.
func WithConn(ctx context.Context, conn *Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// FromContext retrieves the bound connection from the context.
func FromContext(ctx context.Context) (*Conn, bool) {
	conn, ok := ctx.Value(connKey{}).(*Conn)
	return conn, ok
}

// MustFromContext retrieves the bound connection or panics. Use only in
// handlers mounted behind the gate.
func MustFromContext(ctx context.Context) *Conn {
	conn, ok := FromContext(ctx)
	if !ok || conn == nil {
		panic("router: no bound connection in context")
	}
	return conn
}

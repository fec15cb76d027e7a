package router

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/schoolkit/pkg/secrets"
	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// Pinger verifies a pool is actually reachable. The default pings the
// database; tests substitute their own.
type Pinger func(ctx context.Context, pool *pgxpool.Pool) error

// Option configures a Router.
type Option func(*Router)

// WithPinger replaces the reachability check performed during Bind.
func WithPinger(ping Pinger) Option {
	return func(r *Router) {
		if ping != nil {
			r.ping = ping
		}
	}
}

// pooledConn tracks one tenant's cached pool. refs counts live
// bindings; an evicted pool is closed as soon as the last binding is
// released.
type pooledConn struct {
	pool     *pgxpool.Pool
	user     string
	refs     int
	evicted  bool
	lastUsed time.Time
}

// Router assembles and caches per-tenant connection pools and hands out
// request-scoped bindings. It holds no notion of a "current" tenant:
// every binding lives in the requesting context and nowhere else.
type Router struct {
	cfg      Config
	central  *pgxpool.Pool
	appKey   []byte
	scopeKey []byte
	ping     Pinger

	mu     sync.Mutex
	pools  map[uuid.UUID]*pooledConn
	closed bool

	stop chan struct{}
	done chan struct{}
}

// New creates a Router. central must be an open pool on the shared
// administrative database; its lifecycle stays with the caller. The
// encryption keys are decoded from cfg and validated up front so a key
// misconfiguration fails at startup instead of on the first request.
func New(cfg Config, central *pgxpool.Pool, opts ...Option) (*Router, error) {
	appKey, err := base64.StdEncoding.DecodeString(cfg.AppKey)
	if err != nil {
		return nil, fmt.Errorf("decode app key: %w", err)
	}
	scopeKey, err := base64.StdEncoding.DecodeString(cfg.TenantKey)
	if err != nil {
		return nil, fmt.Errorf("decode tenant key: %w", err)
	}
	if err := secrets.ValidateKeys(appKey, scopeKey); err != nil {
		return nil, err
	}

	r := &Router{
		cfg:      cfg,
		central:  central,
		appKey:   appKey,
		scopeKey: scopeKey,
		ping: func(ctx context.Context, pool *pgxpool.Pool) error {
			return pool.Ping(ctx)
		},
		pools: make(map[uuid.UUID]*pooledConn),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.evictIdle()
	return r, nil
}

// Bind resolves the tenant's credential, ensures a reachable pool for
// its database, and returns a request-scoped handle. The reachability
// ping runs on every bind so a dead tenant database fails here with
// ErrConnectionUnavailable instead of surfacing as a generic query
// error downstream.
func (r *Router) Bind(ctx context.Context, t *tenant.Tenant) (*Conn, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRouterClosed
	}
	pc, ok := r.pools[t.ID]
	if ok && pc.user != t.DatabaseUser {
		// Credential or role changed since this pool was built.
		r.evictLocked(t.ID, pc)
		ok = false
	}
	if ok {
		pc.refs++
		r.mu.Unlock()
	} else {
		r.mu.Unlock()

		var err error
		if pc, err = r.buildPool(ctx, t); err != nil {
			return nil, err
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, r.cfg.PingTimeout)
	defer cancel()
	if err := r.ping(pingCtx, pc.pool); err != nil {
		r.mu.Lock()
		r.releaseLocked(t.ID, pc)
		r.evictLocked(t.ID, pc)
		r.mu.Unlock()
		return nil, errors.Join(ErrConnectionUnavailable, err)
	}

	return NewConn(t.ID, pc.pool, func() {
		r.mu.Lock()
		pc.lastUsed = time.Now()
		r.releaseLocked(t.ID, pc)
		r.mu.Unlock()
	}), nil
}

// buildPool decrypts the tenant credential, constructs the pool and
// registers it, resolving construction races in favor of the pool that
// got there first.
func (r *Router) buildPool(ctx context.Context, t *tenant.Tenant) (*pooledConn, error) {
	password, err := secrets.DecryptString(r.appKey, r.scopeKey, t.EncryptedPassword)
	if err != nil {
		return nil, errors.Join(ErrConnectionUnavailable, ErrCredentialDecryption, err)
	}

	poolCfg, err := pgxpool.ParseConfig(r.tenantDSN(t, password))
	if err != nil {
		return nil, errors.Join(ErrConnectionUnavailable, err)
	}
	poolCfg.MaxConns = r.cfg.MaxPoolConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Join(ErrConnectionUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		pool.Close()
		return nil, ErrRouterClosed
	}
	if existing, ok := r.pools[t.ID]; ok && existing.user == t.DatabaseUser {
		// Lost a construction race; use the winner.
		pool.Close()
		existing.refs++
		return existing, nil
	}

	pc := &pooledConn{pool: pool, user: t.DatabaseUser, refs: 1, lastUsed: time.Now()}
	r.pools[t.ID] = pc
	return pc, nil
}

// BindCentral returns a handle on the shared administrative database,
// used for central-domain requests. Releasing it is a no-op since the
// central pool outlives individual requests.
func (r *Router) BindCentral(ctx context.Context) (*Conn, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRouterClosed
	}
	return NewConn(uuid.Nil, r.central, nil), nil
}

// Evict drops the cached pool for a tenant. Must be called after
// credential rotation or tenant deletion; the pool closes as soon as
// in-flight bindings release it.
func (r *Router) Evict(tenantID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pc, ok := r.pools[tenantID]; ok {
		r.evictLocked(tenantID, pc)
	}
}

// Close evicts every tenant pool and stops accepting binds. The central
// pool is untouched: the caller owns it.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for id, pc := range r.pools {
		r.evictLocked(id, pc)
	}
	r.mu.Unlock()

	close(r.stop)
	<-r.done
	return nil
}

func (r *Router) releaseLocked(id uuid.UUID, pc *pooledConn) {
	pc.refs--
	if pc.evicted && pc.refs <= 0 {
		pc.pool.Close()
	}
}

func (r *Router) evictLocked(id uuid.UUID, pc *pooledConn) {
	if pc.evicted {
		return
	}
	pc.evicted = true
	if current, ok := r.pools[id]; ok && current == pc {
		delete(r.pools, id)
	}
	if pc.refs <= 0 {
		pc.pool.Close()
	}
}

// evictIdle closes pools that have sat unreferenced beyond PoolIdleTTL
// so a rarely visited school does not hold connections forever.
func (r *Router) evictIdle() {
	defer close(r.done)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-r.cfg.PoolIdleTTL)
			r.mu.Lock()
			for id, pc := range r.pools {
				if pc.refs <= 0 && pc.lastUsed.Before(cutoff) {
					r.evictLocked(id, pc)
				}
			}
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

// tenantDSN assembles the tenant connection string from deployment
// config and the tenant row. The password travels only inside the
// returned string, which pgx parses and discards.
func (r *Router) tenantDSN(t *tenant.Tenant, password string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(t.DatabaseUser, password),
		Host:   fmt.Sprintf("%s:%d", r.cfg.TenantDBHost, r.cfg.TenantDBPort),
		Path:   "/" + t.DatabaseName,
	}
	q := url.Values{}
	if r.cfg.SSLMode != "" {
		q.Set("sslmode", r.cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

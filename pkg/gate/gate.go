package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/schoolkit/pkg/clientip"
	"github.com/dmitrymomot/schoolkit/pkg/router"
	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// State is where a request landed after passing the gate. Terminal
// success states live exactly as long as the request; the binding they
// represent is released when the request ends, win or lose.
type State string

const (
	StateUnresolved   State = "unresolved"
	StateCentralBound State = "central_bound"
	StateTenantBound  State = "tenant_bound"
	StateRejected     State = "rejected"
)

// Binder is the connection-routing surface the gate needs.
// *router.Router satisfies it.
type Binder interface {
	Bind(ctx context.Context, t *tenant.Tenant) (*router.Conn, error)
	BindCentral(ctx context.Context) (*router.Conn, error)
}

// Resolver is the domain-resolution surface the gate needs.
// *tenant.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, host string) (tenant.Resolution, error)
}

// Middleware builds the per-request orchestration: resolve the Host
// header, check tenant status, bind the right database connection, and
// hand the request on with tenant and connection in its context. The
// binding is released in a defer, so it is returned even when a
// downstream handler panics or the client goes away mid-flight.
//
// Rejections never reach downstream handlers: unknown hosts get a 404,
// suspended tenants a 403 (without their database ever being dialed),
// and infrastructure failures a 503, each with a generic body.
func Middleware(resolver Resolver, binder Binder, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		log:      slog.Default(),
		rejected: defaultRejectedHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			host := tenant.NormalizeHost(r.Host)
			ip := clientip.GetIP(r)

			res, err := resolver.Resolve(ctx, host)
			if err != nil {
				cfg.reject(w, r, host, ip, nil, err)
				return
			}

			if res.Central {
				conn, err := binder.BindCentral(ctx)
				if err != nil {
					cfg.reject(w, r, host, ip, nil, err)
					return
				}
				defer conn.Release()

				cfg.logTransition(ctx, StateCentralBound, host, ip, nil, r)
				next.ServeHTTP(w, r.WithContext(router.WithConn(ctx, conn)))
				return
			}

			t := res.Tenant

			// Exhaustive status handling; an unknown value is treated as
			// unavailable rather than silently admitted.
			switch t.Status {
			case tenant.StatusActive:
				// fall through to binding
			case tenant.StatusSuspended:
				cfg.reject(w, r, host, ip, t, tenant.ErrTenantSuspended)
				return
			default:
				cfg.reject(w, r, host, ip, t, router.ErrConnectionUnavailable)
				return
			}

			conn, err := binder.Bind(ctx, t)
			if err != nil {
				cfg.reject(w, r, host, ip, t, err)
				return
			}
			defer conn.Release()

			ctx = tenant.WithTenant(ctx, t)
			ctx = router.WithConn(ctx, conn)

			cfg.logTransition(ctx, StateTenantBound, host, ip, t, r)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusFor maps the resolution/binding error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tenant.ErrDomainNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenant.ErrTenantSuspended):
		return http.StatusForbidden
	case errors.Is(err, tenant.ErrRegistryUnavailable),
		errors.Is(err, router.ErrConnectionUnavailable),
		errors.Is(err, router.ErrRouterClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// defaultRejectedHandler writes a generic page for the mapped status.
// No internal detail leaves the process.
func defaultRejectedHandler(w http.ResponseWriter, r *http.Request, status int) {
	http.Error(w, http.StatusText(status), status)
}

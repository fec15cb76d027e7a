package tenant

import (
	"context"
	"net"
	"strings"
	"time"
)

// DefaultCacheTTL bounds how stale a cached resolution may be. Short
// enough that suspensions and domain changes propagate within minutes
// even when the administrative write never reaches the cache.
const DefaultCacheTTL = 2 * time.Minute

// Resolution is the outcome of mapping a hostname. Exactly one of
// Central or Tenant is meaningful: central hostnames never resolve to a
// tenant and never touch the registry.
type Resolution struct {
	Central bool
	Tenant  *Tenant
}

// Resolver maps inbound hostnames to tenants through a cache in front
// of the registry. It only ever populates the cache; all tenant-state
// mutation happens elsewhere and is expected to call Invalidate.
type Resolver struct {
	registry Registry
	cache    Cache
	ttl      time.Duration
	central  map[string]struct{}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache replaces the default in-memory cache, e.g. with the
// Redis-backed implementation for multi-instance deployments.
func WithCache(cache Cache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithCacheTTL sets the expiry for cached resolutions.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithCentralDomains registers hostnames that serve shared
// administrative functionality. They short-circuit resolution without a
// registry lookup.
func WithCentralDomains(domains ...string) ResolverOption {
	return func(r *Resolver) {
		for _, d := range domains {
			if d = NormalizeHost(d); d != "" {
				r.central[d] = struct{}{}
			}
		}
	}
}

// NewResolver creates a domain resolver over the given registry.
// Without options it uses an in-memory cache with DefaultCacheTTL and
// no central domains.
func NewResolver(registry Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry: registry,
		cache:    NewMemoryCache(),
		ttl:      DefaultCacheTTL,
		central:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeHost canonicalizes an inbound Host header value: strips any
// port, the trailing dot of a FQDN, and lowercases the rest. Returns ""
// for hosts that cannot name a domain.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

// IsCentral reports whether the hostname is configured as a central
// (non-tenant) domain.
func (r *Resolver) IsCentral(host string) bool {
	_, ok := r.central[NormalizeHost(host)]
	return ok
}

// Resolve maps a hostname to its tenant. Central hostnames return a
// Resolution with Central set and never hit cache or registry. Unknown
// hostnames return ErrDomainNotFound; registry outages return
// ErrRegistryUnavailable so callers can answer 503 rather than 404.
func (r *Resolver) Resolve(ctx context.Context, host string) (Resolution, error) {
	key := NormalizeHost(host)
	if key == "" {
		return Resolution{}, ErrDomainNotFound
	}
	if _, ok := r.central[key]; ok {
		return Resolution{Central: true}, nil
	}

	if t, ok := r.cache.Get(ctx, key); ok {
		return Resolution{Tenant: t}, nil
	}

	t, err := r.registry.GetByDomain(ctx, key)
	if err != nil {
		return Resolution{}, err
	}

	r.cache.Set(ctx, key, t, r.ttl)
	return Resolution{Tenant: t}, nil
}

// Invalidate drops cached resolutions for the given hostnames. Called
// after administrative writes (suspension, deletion, domain moves,
// credential rotation) so they take effect before the TTL elapses.
func (r *Resolver) Invalidate(ctx context.Context, hosts ...string) {
	for _, h := range hosts {
		if key := NormalizeHost(h); key != "" {
			r.cache.Delete(ctx, key)
		}
	}
}

// Close releases the resolver's cache resources.
func (r *Resolver) Close() error {
	return r.cache.Close()
}

package tenant_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// fakeRegistry is an in-memory Registry used across the resolver tests.
type fakeRegistry struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]*tenant.Tenant
	domains  map[string]uuid.UUID
	lookups  int
	failWith error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		tenants: make(map[uuid.UUID]*tenant.Tenant),
		domains: make(map[string]uuid.UUID),
	}
}

func (r *fakeRegistry) add(t *tenant.Tenant, domains ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
	for _, d := range domains {
		r.domains[d] = t.ID
	}
}

func (r *fakeRegistry) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *fakeRegistry) failNextWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *fakeRegistry) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.failWith != nil {
		return nil, r.failWith
	}
	id, ok := r.domains[domain]
	if !ok {
		return nil, tenant.ErrDomainNotFound
	}
	return r.tenants[id], nil
}

func (r *fakeRegistry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *fakeRegistry) List(ctx context.Context, status tenant.Status) ([]tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tenant.Tenant
	for _, t := range r.tenants {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRegistry) Create(ctx context.Context, t *tenant.Tenant) error {
	r.add(t)
	return nil
}

func (r *fakeRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, id)
	return nil
}

func (r *fakeRegistry) UpdateStatus(ctx context.Context, id uuid.UUID, status tenant.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[id]; ok {
		t.Status = status
	}
	return nil
}

func (r *fakeRegistry) UpdatePassword(ctx context.Context, id uuid.UUID, encryptedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[id]; ok {
		t.EncryptedPassword = encryptedPassword
	}
	return nil
}

func (r *fakeRegistry) CreateDomain(ctx context.Context, d *tenant.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.domains[d.Domain]; exists {
		return tenant.ErrDuplicateDomain
	}
	r.domains[d.Domain] = d.TenantID
	return nil
}

func (r *fakeRegistry) ListDomains(ctx context.Context, tenantID uuid.UUID) ([]tenant.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tenant.Domain
	for d, id := range r.domains {
		if id == tenantID {
			out = append(out, tenant.Domain{TenantID: id, Domain: d})
		}
	}
	return out, nil
}

func (r *fakeRegistry) DeleteDomainsForTenant(ctx context.Context, tenantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for d, id := range r.domains {
		if id == tenantID {
			delete(r.domains, d)
		}
	}
	return nil
}

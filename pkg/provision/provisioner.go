package provision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/schoolkit/pkg/secrets"
	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// NewTenant describes a school to be provisioned.
type NewTenant struct {
	Name       string // display name; also the source of the database identifier
	Domain     string // primary hostname for the school
	AdminEmail string // initial administrative user seeded into the tenant database
}

// Result is returned by a successful Provision. AdminPassword is the
// placeholder credential for the seeded administrator; it is shown once
// to the operator and the tenant application forces a change on first
// login. It is not stored anywhere in plaintext.
type Result struct {
	Tenant        *tenant.Tenant
	AdminPassword string
}

// CacheInvalidator drops cached domain resolutions after administrative
// writes. *tenant.Resolver satisfies it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, hosts ...string)
}

// PoolEvictor drops cached tenant connection pools after credential or
// lifecycle changes. *router.Router satisfies it.
type PoolEvictor interface {
	Evict(tenantID uuid.UUID)
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithCacheInvalidator wires the domain-resolution cache so suspensions
// and deletions take effect before the cache TTL elapses.
func WithCacheInvalidator(inv CacheInvalidator) Option {
	return func(p *Provisioner) {
		if inv != nil {
			p.invalidator = inv
		}
	}
}

// WithPoolEvictor wires the connection router so rotated or deleted
// tenants lose their cached pools immediately.
func WithPoolEvictor(ev PoolEvictor) Option {
	return func(p *Provisioner) {
		if ev != nil {
			p.evictor = ev
		}
	}
}

// Provisioner orchestrates tenant lifecycle: physical database and role
// creation, schema migration, seeding, registry bookkeeping, and the
// reverse of all of it on deletion. All privileged work goes through
// Infra; the Provisioner itself never holds a database connection.
type Provisioner struct {
	infra       Infra
	registry    tenant.Registry
	log         logger
	invalidator CacheInvalidator
	evictor     PoolEvictor

	appKey   []byte
	scopeKey []byte
}

// New creates a Provisioner. Keys are decoded and validated up front.
func New(cfg Config, infra Infra, registry tenant.Registry, log logger, opts ...Option) (*Provisioner, error) {
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

	p := &Provisioner{
		infra:       infra,
		registry:    registry,
		log:         log,
		invalidator: noopInvalidator{},
		evictor:     noopEvictor{},
		appKey:      appKey,
		scopeKey:    scopeKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Provision creates everything a new school needs: database, dedicated
// role, schema, seeded administrator, registry row and primary domain.
// Atomic from the caller's perspective: on any failure the partially
// created artifacts are torn down before the error is returned, so no
// half-provisioned tenant is ever observable. If teardown itself fails,
// the returned error additionally carries ErrManualCleanupRequired.
func (p *Provisioner) Provision(ctx context.Context, req NewTenant) (*Result, error) {
	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" || strings.ContainsAny(domain, " /:") {
		return nil, ErrInvalidDomain
	}
	if strings.TrimSpace(req.AdminEmail) == "" {
		return nil, fmt.Errorf("%w: admin email required", ErrProvisioningFailed)
	}

	dbName, err := databaseIdentifier(req.Name)
	if err != nil {
		return nil, err
	}
	// One identifier serves as both database and role name; they live in
	// different namespaces and sharing keeps teardown bookkeeping simple.
	dbUser := dbName

	dbPassword, err := generatePassword()
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}
	adminPassword, err := generatePassword()
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}

	p.log.InfoContext(ctx, "provisioning tenant", "name", req.Name, "database", dbName, "domain", domain)

	if err := p.infra.CreateDatabase(ctx, dbName); err != nil {
		return nil, errors.Join(ErrProvisioningFailed, err)
	}
	if err := p.infra.CreateRole(ctx, dbUser, dbPassword, dbName); err != nil {
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}
	if err := p.infra.MigrateTenant(ctx, dbName); err != nil {
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}
	if err := p.infra.SeedAdmin(ctx, dbName, req.AdminEmail, string(adminHash)); err != nil {
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}

	encrypted, err := secrets.EncryptString(p.appKey, p.scopeKey, dbPassword)
	if err != nil {
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}

	now := time.Now().UTC()
	t := &tenant.Tenant{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(req.Name),
		DatabaseName:      dbName,
		DatabaseUser:      dbUser,
		EncryptedPassword: encrypted,
		Status:            tenant.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := p.registry.Create(ctx, t); err != nil {
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}
	d := &tenant.Domain{
		ID:        uuid.New(),
		TenantID:  t.ID,
		Domain:    domain,
		IsPrimary: true,
		CreatedAt: now,
	}
	if err := p.registry.CreateDomain(ctx, d); err != nil {
		// Roll the registry row back too before tearing down infrastructure.
		if delErr := p.registry.Delete(ctx, t.ID); delErr != nil {
			p.log.ErrorContext(ctx, "failed to remove tenant row during rollback", "tenant_id", t.ID, "error", delErr)
		}
		return nil, p.failProvision(ctx, dbName, dbUser, err)
	}

	p.invalidator.Invalidate(ctx, domain)
	p.log.InfoContext(ctx, "tenant provisioned", "tenant_id", t.ID, "database", dbName, "domain", domain)

	return &Result{Tenant: t, AdminPassword: adminPassword}, nil
}

// failProvision tears down partially created infrastructure and wraps
// the original error. Teardown failures never mask the original; they
// are logged and marked with ErrManualCleanupRequired so operators know
// residue remains.
func (p *Provisioner) failProvision(ctx context.Context, dbName, dbUser string, cause error) error {
	p.log.ErrorContext(ctx, "provisioning failed, tearing down partial tenant",
		"database", dbName, "error", cause)

	if cleanupErr := p.teardown(ctx, dbName, dbUser); cleanupErr != nil {
		p.log.ErrorContext(ctx, "teardown after failed provisioning also failed",
			"database", dbName, "error", cleanupErr)
		return errors.Join(ErrProvisioningFailed, cause, ErrManualCleanupRequired, cleanupErr)
	}
	return errors.Join(ErrProvisioningFailed, cause)
}

// teardown removes the physical artifacts in reverse dependency order.
func (p *Provisioner) teardown(ctx context.Context, dbName, dbUser string) error {
	var errs []error
	if err := p.infra.DropDatabase(ctx, dbName); err != nil {
		errs = append(errs, fmt.Errorf("drop database %s: %w", dbName, err))
	}
	if err := p.infra.DropRole(ctx, dbUser); err != nil {
		errs = append(errs, fmt.Errorf("drop role %s: %w", dbUser, err))
	}
	return errors.Join(errs...)
}

// Delete destroys a tenant: cached pools, physical database and role,
// domain rows, and finally the registry row. The row goes last because
// the credential needed to manage the infrastructure lives on it; a
// failure anywhere leaves the row in place and surfaces
// ErrDeletionFailed so operators know cleanup is incomplete.
func (p *Provisioner) Delete(ctx context.Context, tenantID uuid.UUID) error {
	t, err := p.registry.GetByID(ctx, tenantID)
	if err != nil {
		return errors.Join(ErrDeletionFailed, err)
	}
	domains, err := p.registry.ListDomains(ctx, tenantID)
	if err != nil {
		return errors.Join(ErrDeletionFailed, err)
	}

	p.evictor.Evict(tenantID)

	if err := p.infra.DropDatabase(ctx, t.DatabaseName); err != nil {
		return errors.Join(ErrDeletionFailed, ErrManualCleanupRequired, err)
	}
	if err := p.infra.DropRole(ctx, t.DatabaseUser); err != nil {
		return errors.Join(ErrDeletionFailed, ErrManualCleanupRequired, err)
	}

	if err := p.registry.DeleteDomainsForTenant(ctx, tenantID); err != nil {
		return errors.Join(ErrDeletionFailed, err)
	}
	if err := p.registry.Delete(ctx, tenantID); err != nil {
		return errors.Join(ErrDeletionFailed, err)
	}

	hosts := make([]string, 0, len(domains))
	for _, d := range domains {
		hosts = append(hosts, d.Domain)
	}
	p.invalidator.Invalidate(ctx, hosts...)

	p.log.InfoContext(ctx, "tenant deleted", "tenant_id", tenantID, "database", t.DatabaseName)
	return nil
}

// Suspend blocks all traffic for the tenant. New requests see the
// change as soon as cached resolutions for its domains are dropped.
func (p *Provisioner) Suspend(ctx context.Context, tenantID uuid.UUID) error {
	return p.setStatus(ctx, tenantID, tenant.StatusSuspended)
}

// Activate re-enables a suspended tenant.
func (p *Provisioner) Activate(ctx context.Context, tenantID uuid.UUID) error {
	return p.setStatus(ctx, tenantID, tenant.StatusActive)
}

func (p *Provisioner) setStatus(ctx context.Context, tenantID uuid.UUID, status tenant.Status) error {
	if err := p.registry.UpdateStatus(ctx, tenantID, status); err != nil {
		return err
	}

	domains, err := p.registry.ListDomains(ctx, tenantID)
	if err != nil {
		// Status is already flipped; the cache TTL still bounds staleness.
		p.log.ErrorContext(ctx, "failed to list domains for cache invalidation",
			"tenant_id", tenantID, "error", err)
	} else {
		hosts := make([]string, 0, len(domains))
		for _, d := range domains {
			hosts = append(hosts, d.Domain)
		}
		p.invalidator.Invalidate(ctx, hosts...)
	}

	if status == tenant.StatusSuspended {
		p.evictor.Evict(tenantID)
	}

	p.log.InfoContext(ctx, "tenant status changed", "tenant_id", tenantID, "status", string(status))
	return nil
}

// ResetAdminPassword rewrites the tenant's administrative user
// credential with a bcrypt hash of newPassword and re-arms the
// forced-change flag.
func (p *Provisioner) ResetAdminPassword(ctx context.Context, tenantID uuid.UUID, adminEmail, newPassword string) error {
	t, err := p.registry.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := p.infra.UpdateAdminPassword(ctx, t.DatabaseName, adminEmail, string(hash)); err != nil {
		return err
	}
	p.log.InfoContext(ctx, "tenant admin password reset", "tenant_id", tenantID)
	return nil
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(ctx context.Context, hosts ...string) {}

type noopEvictor struct{}

func (noopEvictor) Evict(tenantID uuid.UUID) {}

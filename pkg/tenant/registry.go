package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/schoolkit/pkg/pg"
)

// Registry is the central store of tenant records and their domain
// mappings. All methods operate against the shared administrative
// database, never against a tenant database.
type Registry interface {
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context, status Status) ([]Tenant, error)

	Create(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdatePassword(ctx context.Context, id uuid.UUID, encryptedPassword string) error

	CreateDomain(ctx context.Context, d *Domain) error
	ListDomains(ctx context.Context, tenantID uuid.UUID) ([]Domain, error)
	DeleteDomainsForTenant(ctx context.Context, tenantID uuid.UUID) error
}

// PostgresRegistry implements Registry against the central database
// using a pgx connection pool. The password column stores ciphertext
// only; this type never sees plaintext credentials.
type PostgresRegistry struct {
	db *pgxpool.Pool
}

// NewPostgresRegistry creates a registry backed by the given pool.
// The pool must point at the central database, connected with the
// ordinary application credential (not the provisioning one).
func NewPostgresRegistry(db *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

const tenantColumns = `t.id, t.name, t.database_name, t.database_username, t.database_password, t.status, t.created_at, t.updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.DatabaseName, &t.DatabaseUser, &t.EncryptedPassword, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByDomain resolves a hostname to its owning tenant via an exact
// match on the domains table. Returns ErrDomainNotFound for unknown
// hosts and ErrRegistryUnavailable when the database cannot be reached.
func (r *PostgresRegistry) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		JOIN domains d ON d.tenant_id = t.id
		WHERE d.domain = $1`, domain)

	t, err := scanTenant(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrDomainNotFound
		}
		return nil, errors.Join(ErrRegistryUnavailable, err)
	}
	return t, nil
}

// GetByID fetches a tenant row by primary key.
func (r *PostgresRegistry) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		WHERE t.id = $1`, id)

	t, err := scanTenant(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTenantNotFound
		}
		return nil, errors.Join(ErrRegistryUnavailable, err)
	}
	return t, nil
}

// List returns tenants filtered by status, newest first. Pass an empty
// status to list everything. Backed by the (status, created_at) index.
func (r *PostgresRegistry) List(ctx context.Context, status Status) ([]Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t`
	args := []any{}
	if status != "" {
		query += ` WHERE t.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrRegistryUnavailable, err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// Create inserts a tenant row. Database name uniqueness is enforced by
// the schema; violations surface as ErrDuplicateDatabaseName.
func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tenants (id, name, database_name, database_username, database_password, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.DatabaseName, t.DatabaseUser, t.EncryptedPassword, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateDatabaseName
		}
		return errors.Join(ErrRegistryUnavailable, err)
	}
	return nil
}

// Delete removes the tenant row. Domain rows cascade at the schema
// level, but the provisioner deletes them explicitly first so the
// registry row outlives all infrastructure it describes.
func (r *PostgresRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// UpdateStatus flips the administrative status. Takes effect for new
// requests as soon as any cached resolution expires or is invalidated.
func (r *PostgresRegistry) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid tenant status %q", status)
	}
	tag, err := r.db.Exec(ctx, `UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// UpdatePassword stores a rotated credential ciphertext. Callers must
// evict any cached connection pool for this tenant afterwards.
func (r *PostgresRegistry) UpdatePassword(ctx context.Context, id uuid.UUID, encryptedPassword string) error {
	tag, err := r.db.Exec(ctx, `UPDATE tenants SET database_password = $2, updated_at = now() WHERE id = $1`, id, encryptedPassword)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// CreateDomain attaches a hostname to a tenant. When IsPrimary is set,
// any previous primary for the tenant is demoted in the same transaction
// so at most one primary exists.
func (r *PostgresRegistry) CreateDomain(ctx context.Context, d *Domain) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if d.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE domains SET is_primary = false WHERE tenant_id = $1 AND is_primary`, d.TenantID); err != nil {
			return errors.Join(ErrRegistryUnavailable, err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO domains (id, tenant_id, domain, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.TenantID, d.Domain, d.IsPrimary, d.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateDomain
		}
		return errors.Join(ErrRegistryUnavailable, err)
	}

	return tx.Commit(ctx)
}

// ListDomains returns all domains owned by the tenant, primary first.
func (r *PostgresRegistry) ListDomains(ctx context.Context, tenantID uuid.UUID) ([]Domain, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM domains
		WHERE tenant_id = $1
		ORDER BY is_primary DESC, created_at`, tenantID)
	if err != nil {
		return nil, errors.Join(ErrRegistryUnavailable, err)
	}
	defer rows.Close()

	var domains []Domain
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Domain, &d.IsPrimary, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan domain row: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// DeleteDomainsForTenant removes every domain mapping for the tenant.
// Former hostnames resolve to ErrDomainNotFound afterwards.
func (r *PostgresRegistry) DeleteDomainsForTenant(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM domains WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}
	return nil
}

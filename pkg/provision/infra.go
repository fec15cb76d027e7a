package provision

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/schoolkit/pkg/pg"
)

// Infra performs the physical database operations behind provisioning.
// Split from the orchestration so failure ordering and cleanup can be
// tested against a fake without a live cluster.
type Infra interface {
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	CreateRole(ctx context.Context, role, password, database string) error
	DropRole(ctx context.Context, role string) error
	MigrateTenant(ctx context.Context, database string) error
	SeedAdmin(ctx context.Context, database, email, passwordHash string) error
	UpdateAdminPassword(ctx context.Context, database, email, passwordHash string) error
}

// logger is the minimal structured-logging surface; *slog.Logger satisfies it.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// PgInfra is the pgx-backed Infra. admin is connected with the
// privileged provisioning credential to the cluster's maintenance
// database; per-tenant operations open short-lived admin connections to
// the tenant database itself.
type PgInfra struct {
	admin *pgxpool.Pool
	cfg   Config
	log   logger
}

// NewPgInfra builds the production Infra over the privileged pool.
func NewPgInfra(admin *pgxpool.Pool, cfg Config, log logger) *PgInfra {
	return &PgInfra{admin: admin, cfg: cfg, log: log}
}

// CreateDatabase creates the tenant database with a fixed encoding and
// collation so every school's data sorts and compares identically.
// CREATE DATABASE cannot run inside a transaction, hence plain Exec.
func (i *PgInfra) CreateDatabase(ctx context.Context, name string) error {
	if !isSafeIdentifier(name) {
		return fmt.Errorf("%w: unsafe database name", ErrInvalidTenantName)
	}
	_, err := i.admin.Exec(ctx, fmt.Sprintf(
		`CREATE DATABASE %s ENCODING 'UTF8' LC_COLLATE 'C' LC_CTYPE 'C' TEMPLATE template0`,
		pgx.Identifier{name}.Sanitize(),
	))
	return err
}

// DropDatabase terminates any remaining backends and drops the tenant
// database. A database that is already gone is not an error, so
// teardown after a partial provisioning stays idempotent.
func (i *PgInfra) DropDatabase(ctx context.Context, name string) error {
	if !isSafeIdentifier(name) {
		return fmt.Errorf("%w: unsafe database name", ErrInvalidTenantName)
	}
	_, err := i.admin.Exec(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
		name,
	)
	if err != nil {
		return err
	}
	_, err = i.admin.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, pgx.Identifier{name}.Sanitize()))
	return err
}

// CreateRole creates the tenant's dedicated login role and grants it
// data and schema privileges on its own database only. The role is
// explicitly stripped of every escalation path: no SUPERUSER, no
// CREATEDB, no CREATEROLE, and CONNECT on the database is revoked from
// PUBLIC so no other tenant role can reach it either.
func (i *PgInfra) CreateRole(ctx context.Context, role, password, database string) error {
	if !isSafeIdentifier(role) || !isSafeIdentifier(database) {
		return fmt.Errorf("%w: unsafe role or database name", ErrInvalidTenantName)
	}

	quotedRole := pgx.Identifier{role}.Sanitize()
	quotedDB := pgx.Identifier{database}.Sanitize()

	// Passwords cannot be bound parameters in CREATE ROLE; escape the
	// literal by hand. The password is machine-generated base64, but
	// escaping keeps the statement safe regardless.
	escapedPassword := "'" + escapeLiteral(password) + "'"

	stmts := []string{
		fmt.Sprintf(`CREATE ROLE %s LOGIN PASSWORD %s NOSUPERUSER NOCREATEDB NOCREATEROLE NOINHERIT`,
			quotedRole, escapedPassword),
		fmt.Sprintf(`REVOKE CONNECT ON DATABASE %s FROM PUBLIC`, quotedDB),
		fmt.Sprintf(`GRANT CONNECT ON DATABASE %s TO %s`, quotedDB, quotedRole),
	}
	for _, stmt := range stmts {
		if _, err := i.admin.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	// Schema-level grants must run inside the tenant database.
	return i.withTenantDB(ctx, database, func(db *pgxpool.Pool) error {
		grants := []string{
			fmt.Sprintf(`GRANT USAGE, CREATE ON SCHEMA public TO %s`, quotedRole),
			fmt.Sprintf(`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s`, quotedRole),
			fmt.Sprintf(`GRANT USAGE, SELECT ON ALL SEQUENCES IN SCHEMA public TO %s`, quotedRole),
			fmt.Sprintf(`ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT SELECT, INSERT, UPDATE, DELETE ON TABLES TO %s`, quotedRole),
			fmt.Sprintf(`ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT USAGE, SELECT ON SEQUENCES TO %s`, quotedRole),
		}
		for _, stmt := range grants {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropRole removes the tenant role. Missing roles are tolerated for the
// same idempotency reason as DropDatabase.
func (i *PgInfra) DropRole(ctx context.Context, role string) error {
	if !isSafeIdentifier(role) {
		return fmt.Errorf("%w: unsafe role name", ErrInvalidTenantName)
	}
	_, err := i.admin.Exec(ctx, fmt.Sprintf(`DROP ROLE IF EXISTS %s`, pgx.Identifier{role}.Sanitize()))
	return err
}

// MigrateTenant applies the tenant schema set to a freshly created
// database, running as the provisioning credential so migrations may
// use DDL the tenant role is not granted.
func (i *PgInfra) MigrateTenant(ctx context.Context, database string) error {
	return i.withTenantDB(ctx, database, func(db *pgxpool.Pool) error {
		return pg.MigrateDir(ctx, db, i.cfg.TenantMigrationsPath, i.cfg.TenantMigrationsTable, i.log)
	})
}

// SeedAdmin inserts the school's initial administrative user with a
// placeholder credential flagged for forced change on first login.
func (i *PgInfra) SeedAdmin(ctx context.Context, database, email, passwordHash string) error {
	return i.withTenantDB(ctx, database, func(db *pgxpool.Pool) error {
		_, err := db.Exec(ctx, `
			INSERT INTO users (email, password_hash, role, must_change_password)
			VALUES ($1, $2, 'admin', true)`,
			email, passwordHash)
		return err
	})
}

// UpdateAdminPassword rewrites the administrative user's credential and
// re-arms the forced-change flag.
func (i *PgInfra) UpdateAdminPassword(ctx context.Context, database, email, passwordHash string) error {
	return i.withTenantDB(ctx, database, func(db *pgxpool.Pool) error {
		tag, err := db.Exec(ctx, `
			UPDATE users SET password_hash = $2, must_change_password = true, updated_at = now()
			WHERE email = $1 AND role = 'admin'`,
			email, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errors.New("admin user not found in tenant database")
		}
		return nil
	})
}

// withTenantDB opens a short-lived privileged connection to the named
// tenant database, runs fn, and closes it.
func (i *PgInfra) withTenantDB(ctx context.Context, database string, fn func(*pgxpool.Pool) error) error {
	dsn, err := adminDSNFor(i.cfg.AdminConnURL, database)
	if err != nil {
		return err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return err
	}
	poolCfg.MaxConns = 1

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return err
	}
	return fn(db)
}

// adminDSNFor rewrites the privileged connection string to point at the
// given database.
func adminDSNFor(adminURL, database string) (string, error) {
	u, err := url.Parse(adminURL)
	if err != nil {
		return "", fmt.Errorf("parse admin connection url: %w", err)
	}
	u.Path = "/" + database
	return u.String(), nil
}

// escapeLiteral doubles single quotes for safe embedding in a SQL
// string literal.
func escapeLiteral(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}

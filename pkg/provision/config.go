package provision

// Config holds the provisioning credential and tenant-schema settings.
//
// AdminConnURL must carry a role allowed to create and drop databases
// and roles. It is deliberately a separate variable from the ordinary
// PG_CONN_URL: the everyday application credential must never be able
// to touch cluster-level objects, and the provisioning credential must
// never be wired into the request path.
type Config struct {
	AdminConnURL string `env:"PROVISION_PG_CONN_URL,required"` // AdminConnURL is the privileged connection string used only by the provisioner.

	TenantMigrationsPath  string `env:"TENANT_MIGRATIONS_PATH" envDefault:"migrations/tenant"`   // TenantMigrationsPath is the goose set applied to each new tenant database.
	TenantMigrationsTable string `env:"TENANT_MIGRATIONS_TABLE" envDefault:"schema_migrations"`  // TenantMigrationsTable is the goose version table inside tenant databases.

	AppKey    string `env:"SECRETS_APP_KEY,required"`    // AppKey is the base64-encoded application encryption key.
	TenantKey string `env:"SECRETS_TENANT_KEY,required"` // TenantKey is the base64-encoded tenant-scope encryption key.
}

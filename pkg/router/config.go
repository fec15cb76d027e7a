package router

import "time"

// Config describes how per-tenant connection pools are assembled. Host
// and port come from deployment configuration; database name, username
// and password come from the tenant's registry row at bind time, never
// from configuration.
type Config struct {
	TenantDBHost string `env:"TENANT_PG_HOST,required"`                 // TenantDBHost is the host of the cluster holding tenant databases.
	TenantDBPort int    `env:"TENANT_PG_PORT" envDefault:"5432"`        // TenantDBPort is the port of the tenant database cluster.
	SSLMode      string `env:"TENANT_PG_SSLMODE" envDefault:"prefer"`   // SSLMode is passed through to the tenant connection string.
	MaxPoolConns int32  `env:"TENANT_PG_MAX_POOL_CONNS" envDefault:"4"` // MaxPoolConns caps each tenant pool.

	PingTimeout time.Duration `env:"TENANT_PG_PING_TIMEOUT" envDefault:"3s"`   // PingTimeout bounds the reachability check during Bind.
	PoolIdleTTL time.Duration `env:"TENANT_PG_POOL_IDLE_TTL" envDefault:"15m"` // PoolIdleTTL is how long an unused tenant pool survives before eviction.

	AppKey    string `env:"SECRETS_APP_KEY,required"`    // AppKey is the base64-encoded application encryption key.
	TenantKey string `env:"SECRETS_TENANT_KEY,required"` // TenantKey is the base64-encoded tenant-scope encryption key.
}

package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved mappings across application instances so a
// suspension or domain change invalidated on one node is gone on all of
// them. Values are JSON without credential fields: EncryptedPassword,
// DatabaseName and DatabaseUser are re-attached from a second, private
// payload so a compromised cache dump still reveals only ciphertext.
type redisCache struct {
	client *redis.Client
	prefix string
}

// cachedTenant is the Redis wire form of a tenant. It restates the
// credential fields explicitly because Tenant hides them from JSON.
type cachedTenant struct {
	Tenant            Tenant `json:"tenant"`
	DatabaseName      string `json:"database_name"`
	DatabaseUser      string `json:"database_username"`
	EncryptedPassword string `json:"database_password"`
}

// NewRedisCache creates a cache backed by the given Redis client.
// Keys are namespaced under prefix (default "schoolkit:domain:").
func NewRedisCache(client *redis.Client, prefix string) Cache {
	if prefix == "" {
		prefix = "schoolkit:domain:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// Treat miss and backend failure alike: fall through to registry.
		return nil, false
	}

	var entry cachedTenant
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false
	}

	t := entry.Tenant
	t.DatabaseName = entry.DatabaseName
	t.DatabaseUser = entry.DatabaseUser
	t.EncryptedPassword = entry.EncryptedPassword
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	entry := cachedTenant{
		Tenant:            *t,
		DatabaseName:      t.DatabaseName,
		DatabaseUser:      t.DatabaseUser,
		EncryptedPassword: t.EncryptedPassword,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Best effort: a failed Set only costs a registry round-trip later.
	_ = c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) Close() error {
	return nil // client lifecycle is owned by the caller
}

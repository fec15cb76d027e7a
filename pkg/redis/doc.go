// Package redis connects the service to a shared Redis instance, used
// as the cross-instance domain-resolution cache behind
// tenant.NewRedisCache.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil { ... }
//	defer client.Close()
//
//	resolver := tenant.NewResolver(registry,
//	    tenant.WithCache(tenant.NewRedisCache(client, "")))
//
// Healthcheck produces a probe for httpserver.HealthCheckHandler so a
// node with a dead cache connection is pulled from rotation.
package redis

// Package httpserver wraps net/http with graceful shutdown, functional
// options and health probes. The application mounts the gate middleware
// and business routes on a chi router and hands it to Run:
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil { ... }
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives,
// then drains in-flight requests within the shutdown timeout so their
// tenant connection bindings release cleanly.
package httpserver

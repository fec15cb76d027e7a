// Package requestid assigns each request a stable identifier, echoed in
// the X-Request-ID response header and injected into log records, so a
// tenant-binding audit line can be correlated across services.
package requestid

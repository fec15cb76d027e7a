// Package logger builds log/slog loggers with context-aware attribute
// injection. Extractors registered at construction time pull
// request-scoped values (tenant id via tenant.LoggerExtractor, request
// id via requestid.LoggerExtractor, client ip via clientip) out of the
// context on every record, which is how audit lines reconstruct which
// tenant's data a request touched without handlers repeating those
// fields by hand.
package logger

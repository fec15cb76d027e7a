package gate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// RejectedHandler renders the response for a rejected request after the
// gate has mapped the error to an HTTP status.
type RejectedHandler func(w http.ResponseWriter, r *http.Request, status int)

type config struct {
	log      *slog.Logger
	rejected RejectedHandler
}

// Option configures the gate middleware.
type Option func(*config)

// WithLogger sets the logger used for transition audit lines.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRejectedHandler replaces the generic rejection page, e.g. with a
// branded error template. The handler must not leak error internals.
func WithRejectedHandler(h RejectedHandler) Option {
	return func(c *config) {
		if h != nil {
			c.rejected = h
		}
	}
}

// reject logs the transition to StateRejected and renders the response.
// 5xx outcomes log at error level (infrastructure trouble worth
// alerting on); 404/403 at warning (bad or blocked requests).
func (c *config) reject(w http.ResponseWriter, r *http.Request, host, ip string, t *tenant.Tenant, err error) {
	status := statusFor(err)

	attrs := []any{
		"state", string(StateRejected),
		"status", status,
		"host", host,
		"ip", ip,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	}
	if t != nil {
		attrs = append(attrs, "tenant_id", t.ID.String())
	}

	if status >= http.StatusInternalServerError {
		c.log.ErrorContext(r.Context(), "request rejected", attrs...)
	} else {
		c.log.WarnContext(r.Context(), "request rejected", attrs...)
	}

	c.rejected(w, r, status)
}

// logTransition records a successful binding with enough fields to
// reconstruct which tenant's data the request touched.
func (c *config) logTransition(ctx context.Context, state State, host, ip string, t *tenant.Tenant, r *http.Request) {
	attrs := []any{
		"state", string(state),
		"host", host,
		"ip", ip,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if t != nil {
		attrs = append(attrs, "tenant_id", t.ID.String())
	}
	c.log.InfoContext(ctx, "request bound", attrs...)
}

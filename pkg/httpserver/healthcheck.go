package httpserver

import (
	"context"
	"log/slog"
	"net/http"
)

// HealthCheckHandler aggregates probe functions (pg.Healthcheck on the
// central pool, a Redis ping, ...) into one handler usable for both
// liveness and readiness. Any failing probe yields a 503 so a node with
// a dead registry connection is pulled from rotation before it starts
// answering every tenant request with 503s itself.
func HealthCheckHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				if log != nil {
					log.ErrorContext(r.Context(), "healthcheck failed", "error", err)
				}
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

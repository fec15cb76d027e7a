package gate_test

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/schoolkit/pkg/clientip"
	"github.com/dmitrymomot/schoolkit/pkg/config"
	"github.com/dmitrymomot/schoolkit/pkg/gate"
	"github.com/dmitrymomot/schoolkit/pkg/httpserver"
	"github.com/dmitrymomot/schoolkit/pkg/logger"
	"github.com/dmitrymomot/schoolkit/pkg/pg"
	"github.com/dmitrymomot/schoolkit/pkg/requestid"
	"github.com/dmitrymomot/schoolkit/pkg/router"
	"github.com/dmitrymomot/schoolkit/pkg/tenant"
)

// Example shows the full request path: a chi router fronted by the
// gate, with request-id and client-ip middleware feeding the audit log.
func ExampleMiddleware() {
	ctx := context.Background()

	var pgCfg pg.Config
	var routerCfg router.Config
	config.MustLoad(&pgCfg)
	config.MustLoad(&routerCfg)

	log := logger.New(
		logger.WithProduction("schoolkit"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)

	central, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		panic(err)
	}
	defer central.Close()

	registry := tenant.NewPostgresRegistry(central)
	resolver := tenant.NewResolver(registry,
		tenant.WithCentralDomains("admin.schoolkit.example"))
	defer resolver.Close()

	rt, err := router.New(routerCfg, central)
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(log, pg.Healthcheck(central)))

	r.Group(func(r chi.Router) {
		r.Use(gate.Middleware(resolver, rt, gate.WithLogger(log)))
		r.Get("/students", listStudents)
	})

	srv := httpserver.New(httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		panic(err)
	}
}

// listStudents queries whatever school database the gate bound for this
// request; the handler itself is tenant-agnostic.
func listStudents(w http.ResponseWriter, r *http.Request) {
	conn := router.MustFromContext(r.Context())
	rows, err := conn.Pool().Query(r.Context(),
		`SELECT email FROM users WHERE role = 'student' ORDER BY email`)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(email + "\n"))
	}
}

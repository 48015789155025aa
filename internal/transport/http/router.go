// Package http assembles the service router: platform middleware, health and
// metrics endpoints, and the domain handlers behind their auth guards.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	compliancehandler "comply/internal/compliance/handler"
	"comply/internal/dashboard"
	"comply/internal/platform/metrics"
	"comply/internal/platform/middleware"
	"comply/pkg/platform/httputil"
)

// HealthChecker reports whether a backing resource is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      middleware.JWTValidator
	ServiceKeyHash string

	Compliance *compliancehandler.Handler
	Dashboard  *dashboard.Handler

	// Health checks run on /healthz, keyed by resource name. Nil entries
	// are skipped so optional resources stay out of the probe.
	Health map[string]HealthChecker
}

// NewRouter builds the chi router for the API process.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Compliance.Register(g)
		deps.Dashboard.Register(g)
	})

	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireServiceKey(deps.ServiceKeyHash, deps.Logger))
		deps.Compliance.RegisterInternal(g)
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"charging-route-service/internal/api/handlers"
	"charging-route-service/internal/platform/logging"
	"charging-route-service/internal/platform/metrics"
	"charging-route-service/internal/ports"
)

type RouterDeps struct {
	Planner  handlers.Planner
	Stations ports.StationRepository
	Metrics  *metrics.Metrics
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d RouterDeps) http.Handler {
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestContext(logging.Component(d.Logger, "api")))
	r.Use(accessLog(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(otelhttp.NewMiddleware("charging-route-service"))

	planHandler := &handlers.PlanHandler{Planner: d.Planner}
	stationHandler := &handlers.StationHandler{Repo: d.Stations}

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Post("/plans", planHandler.Plan)
	r.Get("/stations", stationHandler.List)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"method not allowed"}` + "\n"))
	})

	return r
}

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	routing      *prometheus.CounterVec
	cache        *prometheus.CounterVec
	plans        *prometheus.CounterVec
	planDuration prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New registers the collectors on the default Prometheus registerer.
func New() (*Metrics, error) {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Collectors already present
// on reg are reused. A nil registerer defaults to the global one.
func NewWithRegistry(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		routing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_requests_total",
			Help: "Routing provider lookups by provider and outcome",
		}, []string{"provider", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distance_cache_lookups_total",
			Help: "Distance cache lookups by result",
		}, []string{"result"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_results_total",
			Help: "Planning calls by outcome",
		}, []string{"outcome"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plan_duration_seconds",
			Help:    "End-to-end planning latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	var err error
	if m.routing, err = register(reg, m.routing); err != nil {
		return nil, err
	}
	if m.cache, err = register(reg, m.cache); err != nil {
		return nil, err
	}
	if m.plans, err = register(reg, m.plans); err != nil {
		return nil, err
	}
	if m.planDuration, err = register(reg, m.planDuration); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpLatency, err = register(reg, m.httpLatency); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RoutingRequest counts one provider lookup. Outcome is routed, fallback or unavailable.
func (m *Metrics) RoutingRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.routing.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) PlanCompleted(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
	m.planDuration.Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpLatency.WithLabelValues(method, route, code).Observe(d.Seconds())
}

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewWithRegistry(reg)
	require.NoError(t, err)

	m.RoutingRequest("google", "routed")
	m.RoutingRequest("google", "fallback")
	m.RoutingRequest("google", "fallback")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.PlanCompleted("recommended", 150*time.Millisecond)
	m.HTTPRequest("POST", "/plans", 200, 20*time.Millisecond)

	expected := `
# HELP routing_requests_total Routing provider lookups by provider and outcome
# TYPE routing_requests_total counter
routing_requests_total{outcome="fallback",provider="google"} 2
routing_requests_total{outcome="routed",provider="google"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.routing, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plans.WithLabelValues("recommended")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.planDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpLatency))
}

func TestMetricsReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewWithRegistry(reg)
	require.NoError(t, err)

	first.CacheLookup(true)
	second.CacheLookup(true)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.cache.WithLabelValues("hit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RoutingRequest("ors", "routed")
	m.CacheLookup(false)
	m.PlanCompleted("failed", time.Second)
	m.HTTPRequest("GET", "/health", 200, time.Millisecond)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animap_cache_lookups_total",
			Help: "Cache reads by kind and result",
		},
		[]string{"kind", "result"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animap_provider_calls_total",
			Help: "Provider adapter calls by provider, operation, and result",
		},
		[]string{"provider", "operation", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animap_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"provider", "from", "to"},
	)

	CatalogWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animap_catalog_wait_seconds",
			Help:    "Time spent waiting for catalog rate limiter capacity",
			Buckets: []float64{0, .25, .5, 1, 5, 15, 30, 60},
		},
	)
)

// Cache lookup results.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultStale = "stale"
)

// RecordCacheLookup counts a cache read.
func RecordCacheLookup(kind, result string) {
	CacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordProviderCall counts a provider call, classifying it by err.
func RecordProviderCall(provider, operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ProviderCalls.WithLabelValues(provider, operation, result).Inc()
}

// RecordBreakerTransition counts a circuit breaker state change.
func RecordBreakerTransition(provider, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(provider, from, to).Inc()
}

// ObserveCatalogWait records how long a catalog request waited for capacity.
func ObserveCatalogWait(wait time.Duration) {
	CatalogWait.Observe(wait.Seconds())
}

// Handler serves the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exposes Prometheus instrumentation for adapter calls and
// routing decisions. Collectors are registered once at package init so every
// component can record without wiring a handle through.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	adapterCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_adapter_calls_total",
			Help: "Adapter invocations by provider, capability and outcome.",
		},
		[]string{"provider", "capability", "outcome"},
	)

	adapterCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paybridge_adapter_call_duration_seconds",
			Help:    "Wall time of individual adapter calls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"provider", "capability"},
	)

	routeDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_route_decisions_total",
			Help: "Payment route selections by chosen provider; provider=none means NoRouteAvailable.",
		},
		[]string{"provider", "currency"},
	)

	providerHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paybridge_provider_up",
			Help: "1 when the provider was last observed online, 0 otherwise.",
		},
		[]string{"provider"},
	)
)

// RecordAdapterCall records one fan-out call.
func RecordAdapterCall(provider, capability string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	adapterCallsTotal.WithLabelValues(provider, capability, outcome).Inc()
	adapterCallDuration.WithLabelValues(provider, capability).Observe(elapsed.Seconds())
}

// RecordRouteDecision records the outcome of a route selection.
func RecordRouteDecision(provider, currency string) {
	if provider == "" {
		provider = "none"
	}
	routeDecisionsTotal.WithLabelValues(provider, currency).Inc()
}

// RecordProviderHealth reflects the health monitor's view of a provider.
func RecordProviderHealth(provider string, online bool) {
	v := 0.0
	if online {
		v = 1.0
	}
	providerHealth.WithLabelValues(provider).Set(v)
}

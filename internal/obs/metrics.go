package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the service's Prometheus collectors. A private registry keeps
// repeated test setups from colliding with the global default registerer.
var Registry = prometheus.NewRegistry()

var (
	// Mutations counts product mutations by action and result
	// (ok, validation, conflict, not_found, error).
	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "mutations_total",
		Help:      "Product mutations by action and result.",
	}, []string{"action", "result"})

	// ActivityOrphans counts mutations committed without their activity entry.
	ActivityOrphans = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "activity_orphans_total",
		Help:      "Mutations persisted whose activity entry could not be appended.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inventory",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	Registry.MustRegister(
		Mutations,
		ActivityOrphans,
		HTTPRequests,
		HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

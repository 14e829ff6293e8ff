package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the hub console collectors plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hub_console_fetch_duration_seconds",
			Help:    "Latency of resource collection fetches in seconds, including namespace fallback.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "result"},
	)

	namespaceFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_console_namespace_fallback_total",
			Help: "Number of collection fetches that fell back to per-namespace queries.",
		},
		[]string{"collection"},
	)

	workflowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_console_workflow_total",
			Help: "Lifecycle workflow runs by outcome.",
		},
		[]string{"workflow", "outcome"},
	)

	importPollAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_console_import_secret_poll_attempts_total",
			Help: "Import secret reads by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	Registry.MustRegister(Collectors()...)
}

// Collectors returns the domain collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		fetchDuration,
		namespaceFallbackTotal,
		workflowTotal,
		importPollAttemptsTotal,
	}
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

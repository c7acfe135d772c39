// Package metrics holds the prometheus collectors for the stats relay
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	StatsWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floof",
		Name:      "stats_writes_total",
		Help:      "Stats write attempts by result.",
	}, []string{"result"})

	StatsReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floof",
		Name:      "stats_reads_total",
		Help:      "Stats reads by the store that answered.",
	}, []string{"source"})

	DurableErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floof",
		Name:      "durable_errors_total",
		Help:      "Absorbed durable store failures.",
	}, []string{"backend", "op"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
		StatsWrites,
		StatsReads,
		DurableErrors,
	)
}

// Handler serves the registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

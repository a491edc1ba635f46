package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered on the default registry through promauto.
var (
	// QueriesTotal counts façade calls by operation and outcome code ("OK" on success).
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsgraph_queries_total",
			Help: "Total number of content graph queries",
		},
		[]string{"operation", "code"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsgraph_query_duration_seconds",
			Help:    "Duration of content graph queries in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// StoreCallsTotal counts calls to the graph store, including retries.
	StoreCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsgraph_store_calls_total",
			Help: "Total number of graph store calls",
		},
		[]string{"operation", "outcome"},
	)

	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsgraph_snapshot_builds_total",
			Help: "Total number of index snapshot builds",
		},
		[]string{"outcome"},
	)

	SnapshotArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsgraph_snapshot_articles",
			Help: "Number of articles in the active index snapshot",
		},
	)
)

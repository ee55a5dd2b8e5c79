package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metroreach_queries_enqueued_total",
		Help: "Total number of reachability queries placed on the worker queue.",
	})

	QueriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metroreach_queries_dropped_total",
		Help: "Total number of queries rejected due to a full queue.",
	})

	QueriesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metroreach_queries_completed_total",
		Help: "Total number of queries finished, labelled by outcome.",
	}, []string{"status"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metroreach_query_duration_ms",
		Help:    "Search latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})

	ReachedPairs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metroreach_reached_pairs",
		Help:    "Number of (station, line) pairs returned per query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	IndexSwaps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metroreach_index_swaps_total",
		Help: "Number of times a new index was installed, labelled by source.",
	}, []string{"source"})

	IndexStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metroreach_index_stations",
		Help: "Distinct station names in the active index.",
	})

	IndexRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metroreach_index_records",
		Help: "(station, line) records in the active index.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "metroreach_queue_utilization_ratio",
		Help: "Current query queue utilization (0–1).",
	})
)

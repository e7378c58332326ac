package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnalysesProcessed counts completed analysis calls by outcome (ok/error)
var AnalysesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ringsight_analyses_total",
		Help: "Total number of fraud analyses processed",
	},
	[]string{"outcome"},
)

// RingsDetected counts emitted fraud rings by pattern type
var RingsDetected = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ringsight_rings_detected_total",
		Help: "Total number of fraud rings detected by pattern",
	},
	[]string{"pattern"},
)

// AnalysisLatency records latency distribution for full analysis calls
var AnalysisLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ringsight_analysis_latency_seconds",
		Help:    "Latency in seconds of a full detection pass over a batch",
		Buckets: prometheus.DefBuckets,
	},
)

// BatchSize records the distribution of analyzed batch sizes
var BatchSize = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ringsight_batch_transactions",
		Help:    "Number of transactions per analyzed batch",
		Buckets: prometheus.ExponentialBuckets(10, 4, 8),
	},
)

func init() {
	prometheus.MustRegister(AnalysesProcessed, RingsDetected)
	prometheus.MustRegister(AnalysisLatency, BatchSize)
}

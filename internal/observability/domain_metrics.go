package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_generation_requests_total",
			Help: "Total number of text-generation backend calls by task.",
		},
		[]string{"task"},
	)
	generationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_generation_failures_total",
			Help: "Total number of failed text-generation backend calls by task.",
		},
		[]string{"task"},
	)
	generationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatdb_generation_latency_ms",
			Help:    "Text-generation backend call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
	)
	statementsExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatdb_statements_executed_total",
			Help: "Total number of SQL statements executed by outcome status.",
		},
		[]string{"status"},
	)
	rowsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatdb_rows_ingested_total",
			Help: "Total number of rows inserted through tabular ingestion.",
		},
	)
	pipelineDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatdb_pipeline_duration_ms",
			Help:    "End-to-end pipeline request duration in milliseconds by operation.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000, 15000, 60000},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		generationRequestsTotal,
		generationFailuresTotal,
		generationLatencyMs,
		statementsExecutedTotal,
		rowsIngestedTotal,
		pipelineDurationMs,
	)
}

func ObserveGeneration(task string, elapsed time.Duration, err error) {
	generationRequestsTotal.WithLabelValues(task).Inc()
	if err != nil {
		generationFailuresTotal.WithLabelValues(task).Inc()
	}
	generationLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveStatement(failed bool) {
	status := "ok"
	if failed {
		status = "failed"
	}
	statementsExecutedTotal.WithLabelValues(status).Inc()
}

func AddRowsIngested(count int) {
	if count > 0 {
		rowsIngestedTotal.Add(float64(count))
	}
}

func ObservePipeline(operation string, elapsed time.Duration) {
	pipelineDurationMs.WithLabelValues(operation).Observe(float64(elapsed.Milliseconds()))
}

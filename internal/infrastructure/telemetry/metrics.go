// Package telemetry exposes Prometheus collectors for the engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsComputed counts snapshot rows written by calculation passes.
	SnapshotsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_snapshots_computed_total",
		Help: "Snapshot rows written by calculation passes.",
	})

	// CalculationDuration observes the duration of one calculation pass.
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_calculation_duration_seconds",
		Help:    "Duration of one company+date calculation pass.",
		Buckets: prometheus.DefBuckets,
	})

	// QueueDepth tracks the number of PENDING recalculation entries.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stock_recalc_queue_depth",
		Help: "PENDING recalculation queue entries.",
	})

	// WorkerEntries counts queue entries by outcome (completed, retried, failed).
	WorkerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_recalc_worker_entries_total",
		Help: "Queue entries processed by the worker, by outcome.",
	}, []string{"outcome"})

	// JobRuns counts scheduler job runs by job type and status.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_batch_job_runs_total",
		Help: "Scheduler job runs, by job type and final status.",
	}, []string{"job_type", "status"})
)

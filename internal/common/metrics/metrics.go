// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProfileLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_lookups_total",
			Help: "Profile lookups by outcome (found, not_found, unavailable, invalid, transport)",
		},
		[]string{"backend", "outcome"},
	)

	ProfileSeedRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_seed_runs_total",
			Help: "Seed batch submissions by outcome",
		},
		[]string{"backend", "outcome"},
	)

	ProfileSeedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_seed_records_total",
			Help: "Records included in committed seed batches",
		},
		[]string{"backend"},
	)

	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat backend calls by outcome (ok, http_error, connection_error, decode_error)",
		},
		[]string{"outcome"},
	)

	ChatRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_request_duration_seconds",
			Help:    "Duration of chat backend calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

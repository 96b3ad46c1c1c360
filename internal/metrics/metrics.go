package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleep_alert_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleep_alert_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleep_alert_evaluations_total",
			Help: "Snapshot evaluations by source and result",
		},
		[]string{"source", "result"}, // result: fired, quiet, error
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sleep_alert_evaluation_duration_seconds",
			Help:    "Lock, evaluate and append latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleep_alert_records_created_total",
			Help: "Alert records appended to the ledger",
		},
		[]string{"level", "type"},
	)

	DuplicateRecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sleep_alert_duplicate_records_skipped_total",
			Help: "Records dropped by the ledger unique constraint",
		},
	)

	UnknownEnumWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleep_alert_unknown_enum_total",
			Help: "Rules evaluated with an unrecognized metric type or operator",
		},
		[]string{"kind"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleep_alert_notifications_total",
			Help: "Alert notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intent_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intent_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Storage metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_storage_operations_total",
			Help: "Total number of key-value storage operations",
		},
		[]string{"operation", "status"},
	)

	// Crime record metrics
	CrimeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_crime_operations_total",
			Help: "Total number of crime record operations",
		},
		[]string{"operation", "status"},
	)

	CrimesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intent_crimes_total",
			Help: "Number of crime records in the collection",
		},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_validation_failures_total",
			Help: "Total number of rejected crime saves by first failing field",
		},
		[]string{"field"},
	)

	// Theme metrics
	ThemeSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_theme_selections_total",
			Help: "Total number of theme selections",
		},
		[]string{"theme"},
	)

	// Audit trail metrics
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_audit_events_total",
			Help: "Total number of audit events handled by the sink",
		},
		[]string{"sink", "status"},
	)

	AuditEventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_audit_events_dropped_total",
			Help: "Total number of audit events dropped before reaching the sink",
		},
		[]string{"sink", "reason"},
	)

	AuditSinkFlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intent_audit_sink_flush_duration_seconds",
			Help:    "Time spent flushing the audit sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// System metrics
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "intent_build_info",
			Help: "Build information about intent",
		},
		[]string{"version", "go_version"},
	)
)

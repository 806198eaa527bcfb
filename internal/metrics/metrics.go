package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks upstream API calls per endpoint
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_api_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"endpoint"},
	)

	// APIErrorsTotal tracks upstream API failures
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_api_errors_total",
			Help: "Total number of failed upstream API requests",
		},
		[]string{"endpoint", "error_type"},
	)

	// APILatency tracks upstream API latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildhall_api_latency_seconds",
			Help:    "Upstream API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// FixtureFallbacks counts responses served from bundled fixtures or snapshots
	FixtureFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_fallbacks_total",
			Help: "Total number of times a listing fell back to local data",
		},
		[]string{"listing", "source"},
	)

	// PageCacheRequests tracks page cache lookups by outcome
	PageCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_page_cache_requests_total",
			Help: "Page cache lookups by status (HIT, STALE, MISS)",
		},
		[]string{"status"},
	)

	// PageRegenerations tracks page generations by result
	PageRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_page_regenerations_total",
			Help: "Page generations by result",
		},
		[]string{"result"},
	)

	// UnsupportedRequirements counts requirements dropped from guild pages
	UnsupportedRequirements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildhall_unsupported_requirements_total",
			Help: "Requirements with an unrecognised type",
		},
		[]string{"type"},
	)

	// DBConnectionPoolUsage tracks snapshot database pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guildhall_db_pool_usage_percent",
			Help: "Snapshot database connection pool usage",
		},
	)
)

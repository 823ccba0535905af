package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Force engine metrics
	ForcePassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "force_passes_total",
			Help: "Total number of repulsive force passes",
		},
		[]string{"strategy"}, // strategy: exact, exact_parallel, approx
	)

	ForcePassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "force_pass_duration_seconds",
			Help:    "Duration of repulsive force passes in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"strategy"},
	)

	ForcePassNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "force_pass_nodes",
			Help:    "Number of nodes per force pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	ForceWorkerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "force_worker_failures_total",
			Help: "Total number of worker tasks whose contribution was dropped",
		},
	)

	ForcePerturbations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "force_coincident_perturbations_total",
			Help: "Total number of coincident node pairs separated by perturbation",
		},
	)

	ForceNegligiblePairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "force_negligible_pairs_total",
			Help: "Total number of node pairs skipped as near machine precision",
		},
	)

	ForceGridCells = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "force_grid_cells",
			Help: "Number of cells in the most recent approximation grid",
		},
	)

	// API cache metrics
	APICacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Total number of API cache hits",
		},
		[]string{"endpoint"},
	)

	APICacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "Total number of API cache misses",
		},
		[]string{"endpoint"},
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scanner metrics
	ScansTotal          *prometheus.CounterVec
	ReclaimableAccounts prometheus.Histogram

	// Reclaim metrics
	ChunksTotal         *prometheus.CounterVec
	AccountsClosed      prometheus.Counter
	ConfirmationLatency *prometheus.HistogramVec

	// Reward metrics
	MintOutcomes *prometheus.CounterVec
	MintDuration prometheus.Histogram

	// Voice metrics
	GrantOutcomes *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	RateLimited  prometheus.Counter

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulMint prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ata_reclaim"
	}

	return &Metrics{
		// Scanner metrics
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scans_total",
			Help:      "Total number of wallet scans by result",
		}, []string{"result"}),
		ReclaimableAccounts: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "reclaimable_accounts",
			Help:      "Number of reclaimable accounts found per scan",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
		}),

		// Reclaim metrics
		ChunksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "chunks_total",
			Help:      "Total number of close-account chunks by final state",
		}, []string{"state"}),
		AccountsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reclaim",
			Name:      "accounts_closed_total",
			Help:      "Total number of token accounts closed in confirmed chunks",
		}),
		ConfirmationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to confirmed commitment",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"operation"}),

		// Reward metrics
		MintOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "mint_requests_total",
			Help:      "Total number of mint requests by outcome",
		}, []string{"outcome"}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "mint_duration_seconds",
			Help:      "Duration of reward issuance including confirmation",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),

		// Voice metrics
		GrantOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voice",
			Name:      "grants_total",
			Help:      "Total number of room access requests by outcome",
		}, []string{"outcome"}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulMint: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_mint_timestamp",
			Help:      "Unix timestamp of the last successful reward mint",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScan records a scan result and, on success, how many accounts were reclaimable.
func RecordScan(result string, reclaimable int) {
	DefaultMetrics.ScansTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		DefaultMetrics.ReclaimableAccounts.Observe(float64(reclaimable))
	}
}

// RecordChunk records the terminal state of a chunk.
func RecordChunk(state string, accounts int) {
	DefaultMetrics.ChunksTotal.WithLabelValues(state).Inc()
	if state == "confirmed" {
		DefaultMetrics.AccountsClosed.Add(float64(accounts))
	}
}

// RecordConfirmation records how long a signature took to confirm.
func RecordConfirmation(operation string, seconds float64) {
	DefaultMetrics.ConfirmationLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordMint records a mint request outcome.
func RecordMint(outcome string) {
	DefaultMetrics.MintOutcomes.WithLabelValues(outcome).Inc()
}

// RecordMintIssued records a completed issuance.
func RecordMintIssued(durationSeconds float64, unixTime int64) {
	DefaultMetrics.MintDuration.Observe(durationSeconds)
	DefaultMetrics.LastSuccessfulMint.Set(float64(unixTime))
}

// RecordGrant records a room access outcome.
func RecordGrant(outcome string) {
	DefaultMetrics.GrantOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, status).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited() {
	DefaultMetrics.RateLimited.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

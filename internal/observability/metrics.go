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
	// Signal metrics
	SignalsReceived *prometheus.CounterVec
	SignalsSkipped  *prometheus.CounterVec

	// Trade metrics
	TradesTotal     *prometheus.CounterVec
	TradeDuration   *prometheus.HistogramVec
	VenueFallbacks  *prometheus.CounterVec
	SubmitRetries   prometheus.Counter
	ActivePositions prometheus.Gauge

	// Chain metrics
	RPCCallLatency     *prometheus.HistogramVec
	HTTPCallLatency    *prometheus.HistogramVec
	BlockhashRefreshes *prometheus.CounterVec
	Confirmations      *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copy_trader"
	}

	return &Metrics{
		SignalsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "received_total",
			Help:      "Total number of signals received by kind",
		}, []string{"kind"}),
		SignalsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "skipped_total",
			Help:      "Total number of signals not traded by reason",
		}, []string{"reason"}),

		TradesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "total",
			Help:      "Total number of trade attempts by side, venue and status",
		}, []string{"side", "venue", "status"}),
		TradeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "duration_seconds",
			Help:      "End-to-end trade latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"side"}),
		VenueFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "venue_fallbacks_total",
			Help:      "Total number of fallbacks from the primary venue",
		}, []string{"from", "to"}),
		SubmitRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "submit_retries_total",
			Help:      "Total number of transaction resubmissions",
		}),
		ActivePositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      "active_positions",
			Help:      "Number of open positions in the ledger",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "call_latency_seconds",
			Help:      "External HTTP service latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		BlockhashRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "blockhash_refreshes_total",
			Help:      "Total number of blockhash refreshes by status",
		}, []string{"status"}),
		Confirmations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "confirmations_total",
			Help:      "Signature confirmation outcomes",
		}, []string{"status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful signal poll",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSignal counts a received signal.
func RecordSignal(kind string) {
	DefaultMetrics.SignalsReceived.WithLabelValues(kind).Inc()
}

// RecordSignalSkipped counts a signal that was not traded.
func RecordSignalSkipped(reason string) {
	DefaultMetrics.SignalsSkipped.WithLabelValues(reason).Inc()
}

// RecordTrade records a trade attempt outcome.
func RecordTrade(side, venue, status string, durationSeconds float64) {
	DefaultMetrics.TradesTotal.WithLabelValues(side, venue, status).Inc()
	DefaultMetrics.TradeDuration.WithLabelValues(side).Observe(durationSeconds)
}

// RecordVenueFallback counts a fallback between venues.
func RecordVenueFallback(from, to string) {
	DefaultMetrics.VenueFallbacks.WithLabelValues(from, to).Inc()
}

// RecordSubmitRetry counts a resubmission.
func RecordSubmitRetry() {
	DefaultMetrics.SubmitRetries.Inc()
}

// SetActivePositions sets the open positions gauge.
func SetActivePositions(n int) {
	DefaultMetrics.ActivePositions.Set(float64(n))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordHTTPLatency records external HTTP call latency.
func RecordHTTPLatency(service string, seconds float64) {
	DefaultMetrics.HTTPCallLatency.WithLabelValues(service).Observe(seconds)
}

// RecordBlockhashRefresh counts a blockhash refresh.
func RecordBlockhashRefresh(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.BlockhashRefreshes.WithLabelValues(status).Inc()
}

// RecordConfirmation counts a confirmation outcome: confirmed, failed or timeout.
func RecordConfirmation(status string) {
	DefaultMetrics.Confirmations.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPoll marks a successful poll tick.
func RecordPoll(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulPoll.Set(float64(unixSeconds))
}

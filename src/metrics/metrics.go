package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trading"

// QuoteMetrics groups the collectors of the quote pipeline.
type QuoteMetrics struct {
	SyncRuns          *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	QuotesPersisted   prometheus.Counter
	StoreStatements   *prometheus.CounterVec
	StoreBatches      *prometheus.CounterVec
	AccountStatements *prometheus.CounterVec
	UpstreamRequests  *prometheus.CounterVec
	BreakerState      prometheus.Gauge
}

// -----------------------------------------------------------------------------

// NewQuoteMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	factory := promauto.With(reg)

	return &QuoteMetrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Quote synchronizer invocations by operation and result",
		}, []string{"op", "result"}),

		SyncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Time spent in a synchronizer operation",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"op"}),

		QuotesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_persisted_total",
			Help:      "Quote records written by the synchronizer",
		}),

		StoreStatements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_store_statements_total",
			Help:      "Statements executed against the quote table",
		}, []string{"op"}),

		StoreBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_store_batches_total",
			Help:      "Batched statements applied to the quote table",
		}, []string{"kind"}),

		AccountStatements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_store_statements_total",
			Help:      "Statements executed against the trader and account tables",
		}, []string{"op"}),

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "HTTP requests sent to the market data provider by outcome",
		}, []string{"outcome"}),

		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}),
	}
}

// -----------------------------------------------------------------------------

// ObserveSync records one synchronizer run.
func (m *QuoteMetrics) ObserveSync(op string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.SyncRuns.WithLabelValues(op, result).Inc()
	m.SyncDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

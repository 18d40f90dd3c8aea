package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records counters and timings for stock movements and stocktakes.
type StockMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	retries   *prometheus.CounterVec
	sessions  *prometheus.CounterVec
	variances prometheus.Counter
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_transaction_duration_seconds",
		Help:    "Duration of stock transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transaction_success",
		Help: "Committed stock transactions.",
	}, []string{"type"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transaction_failure",
		Help: "Rejected or failed stock transactions.",
	}, []string{"type"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transaction_retries",
		Help: "Stock transactions retried after a storage conflict.",
	}, []string{"type"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocktake_sessions_closed",
		Help: "Stocktake sessions moved to a terminal status.",
	}, []string{"status"})
	variances := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stocktake_variances_detected",
		Help: "Counted lines whose quantity differed from the expected snapshot.",
	})
	reg.MustRegister(duration, success, failure, retries, sessions, variances)
	return &StockMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		retries:   retries,
		sessions:  sessions,
		variances: variances,
	}
}

// ObserveDuration records how long the named transaction type took to commit.
func (s *StockMetrics) ObserveDuration(txType string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(txType)).Observe(duration.Seconds())
}

// IncSuccess increments the committed counter for the transaction type.
func (s *StockMetrics) IncSuccess(txType string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncFailure increments the failure counter for the transaction type.
func (s *StockMetrics) IncFailure(txType string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncRetry increments the conflict-retry counter for the transaction type.
func (s *StockMetrics) IncRetry(txType string) {
	if s == nil || s.retries == nil {
		return
	}
	s.retries.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncSessionClosed increments the terminal-session counter for the given status.
func (s *StockMetrics) IncSessionClosed(status string) {
	if s == nil || s.sessions == nil {
		return
	}
	s.sessions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncVariance increments the variance counter.
func (s *StockMetrics) IncVariance() {
	if s == nil || s.variances == nil {
		return
	}
	s.variances.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

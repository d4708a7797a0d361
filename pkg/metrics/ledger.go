package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records wallet mutations and reward spins.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	spins      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Completed wallet credit/debit operations.",
	}, []string{"op"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rejections_total",
		Help: "Wallet operations rejected by a ledger invariant.",
	}, []string{"op", "reason"})
	spins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reward_spins_total",
		Help: "Reward wheel spins by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(operations, rejections, spins, duration)
	return &LedgerMetrics{
		operations: operations,
		rejections: rejections,
		spins:      spins,
		duration:   duration,
	}
}

// IncOperation counts a completed wallet mutation.
func (m *LedgerMetrics) IncOperation(op string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncRejection counts a wallet mutation refused by an invariant.
func (m *LedgerMetrics) IncRejection(op, reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(op), normalizeLabel(reason)).Inc()
}

// IncSpin counts one spin by outcome (won, insufficient_funds, no_rewards, error).
func (m *LedgerMetrics) IncSpin(outcome string) {
	if m == nil || m.spins == nil {
		return
	}
	m.spins.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveDuration records how long the named operation took.
func (m *LedgerMetrics) ObserveDuration(op string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}

package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics aggregates the counters recorded for ledger operations.
type LedgerMetrics struct {
	operations  *prometheus.CounterVec
	minted      prometheus.Counter
	burned      prometheus.Counter
	settlements *prometheus.CounterVec
	loans       *prometheus.CounterVec
	escrows     *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the lazily-initialised ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			minted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "ledger",
				Name:      "minted_units_total",
				Help:      "Total ledger units minted across credits and loan principal.",
			}),
			burned: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "ledger",
				Name:      "burned_units_total",
				Help:      "Total ledger units burned across settlements and repayments.",
			}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "paymaster",
				Name:      "settlements_total",
				Help:      "Sponsored-operation settlements segmented by outcome.",
			}, []string{"outcome"}),
			loans: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "lending",
				Name:      "loans_total",
				Help:      "Loan lifecycle transitions segmented by event.",
			}, []string{"event"}),
			escrows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hnxz",
				Subsystem: "escrow",
				Name:      "escrows_total",
				Help:      "Escrow lifecycle transitions segmented by event.",
			}, []string{"event"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.minted,
			ledgerRegistry.burned,
			ledgerRegistry.settlements,
			ledgerRegistry.loans,
			ledgerRegistry.escrows,
		)
	})
	return ledgerRegistry
}

// RecordOperation counts one ledger operation with its outcome label.
func (m *LedgerMetrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordMint adds the minted quantity to the running counter. Values beyond
// float precision saturate; the counter is operational telemetry, not an
// accounting source of truth.
func (m *LedgerMetrics) RecordMint(units float64) {
	if m == nil || units <= 0 {
		return
	}
	m.minted.Add(units)
}

// RecordBurn adds the burned quantity to the running counter.
func (m *LedgerMetrics) RecordBurn(units float64) {
	if m == nil || units <= 0 {
		return
	}
	m.burned.Add(units)
}

// RecordSettlement counts one sponsorship settlement by outcome
// ("charged" or "shortfall").
func (m *LedgerMetrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

// RecordLoan counts one loan lifecycle event ("opened" or "repaid").
func (m *LedgerMetrics) RecordLoan(event string) {
	if m == nil {
		return
	}
	m.loans.WithLabelValues(event).Inc()
}

// RecordEscrow counts one escrow lifecycle event ("created", "released" or
// "cancelled").
func (m *LedgerMetrics) RecordEscrow(event string) {
	if m == nil {
		return
	}
	m.escrows.WithLabelValues(event).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records counters for the money-moving paths.
type LedgerMetrics struct {
	movements           *prometheus.CounterVec
	balanceConflicts    *prometheus.CounterVec
	rejectedTransitions *prometheus.CounterVec
	pendingExpired      prometheus.Counter
	txDuration          *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_recorded",
		Help: "Movements appended to the movement log.",
	}, []string{"direction"})
	balanceConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_balance_conflicts",
		Help: "Optimistic balance writes that lost the version race.",
	}, []string{"outcome"})
	rejectedTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_invoice_transitions_rejected",
		Help: "Invoice status transitions rejected by the state machine.",
	}, []string{"from", "to"})
	pendingExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_pending_expired",
		Help: "Pending transactions lapsed past their TTL.",
	})
	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger write operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(movements, balanceConflicts, rejectedTransitions, pendingExpired, txDuration)
	return &LedgerMetrics{
		movements:           movements,
		balanceConflicts:    balanceConflicts,
		rejectedTransitions: rejectedTransitions,
		pendingExpired:      pendingExpired,
		txDuration:          txDuration,
	}
}

// IncMovement counts one recorded movement for the given direction.
func (m *LedgerMetrics) IncMovement(direction string) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(direction)).Inc()
}

// IncBalanceConflict counts a lost balance write, labelled by what happened next.
func (m *LedgerMetrics) IncBalanceConflict(outcome string) {
	if m == nil || m.balanceConflicts == nil {
		return
	}
	m.balanceConflicts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRejectedTransition counts an invoice transition the state machine refused.
func (m *LedgerMetrics) IncRejectedTransition(from, to string) {
	if m == nil || m.rejectedTransitions == nil {
		return
	}
	m.rejectedTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncPendingExpired counts one pending transaction that lapsed.
func (m *LedgerMetrics) IncPendingExpired() {
	if m == nil || m.pendingExpired == nil {
		return
	}
	m.pendingExpired.Inc()
}

// ObserveOperation records the duration for the named write operation.
func (m *LedgerMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil || m.txDuration == nil {
		return
	}
	m.txDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

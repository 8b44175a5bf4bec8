package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts ledger operations by type and outcome.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	tokens     *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger counters on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by operation name and outcome.",
	}, []string{"operation", "outcome"})
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_tokens_total",
		Help: "Token volume moved through the ledger by entry type.",
	}, []string{"type"})
	reg.MustRegister(operations, tokens)
	return &LedgerMetrics{operations: operations, tokens: tokens}
}

// IncOperation records one ledger operation with its outcome label.
func (l *LedgerMetrics) IncOperation(operation, outcome string) {
	if l == nil || l.operations == nil {
		return
	}
	l.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// AddTokens records token volume for the given entry type.
func (l *LedgerMetrics) AddTokens(entryType string, amount int) {
	if l == nil || l.tokens == nil || amount <= 0 {
		return
	}
	l.tokens.WithLabelValues(normalizeLabel(entryType)).Add(float64(amount))
}

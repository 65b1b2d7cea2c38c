package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records payment workflow outcomes.
type PaymentMetrics struct {
	recorded        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	receiptFailures prometheus.Counter
	ledgerAppends   prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Transactions recorded, by payment mode and status.",
	}, []string{"mode", "status"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Payment attempts rejected before any write, by reason.",
	}, []string{"reason"})
	receiptFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "receipt_failures_total",
		Help: "Receipt render or upload failures (payment still recorded).",
	})
	ledgerAppends := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fee_ledger_appends_total",
		Help: "Credit entries appended to student fee ledgers.",
	})
	reg.MustRegister(recorded, rejected, receiptFailures, ledgerAppends)
	return &PaymentMetrics{
		recorded:        recorded,
		rejected:        rejected,
		receiptFailures: receiptFailures,
		ledgerAppends:   ledgerAppends,
	}
}

// IncRecorded counts a recorded transaction.
func (m *PaymentMetrics) IncRecorded(mode, status string) {
	if m == nil || m.recorded == nil {
		return
	}
	m.recorded.WithLabelValues(normalizeLabel(mode), normalizeLabel(status)).Inc()
}

// IncRejected counts a payment attempt rejected before any write.
func (m *PaymentMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncReceiptFailure counts a best-effort receipt failure.
func (m *PaymentMetrics) IncReceiptFailure() {
	if m == nil || m.receiptFailures == nil {
		return
	}
	m.receiptFailures.Inc()
}

// IncLedgerAppend counts an appended ledger credit.
func (m *PaymentMetrics) IncLedgerAppend() {
	if m == nil || m.ledgerAppends == nil {
		return
	}
	m.ledgerAppends.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}

// Package metrics provides observability for the compliance module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts evaluation activity.
type Metrics struct {
	Evaluations    *prometheus.CounterVec
	HistoryAppends prometheus.Counter
	Exports        prometheus.Counter
	HistoryFreezes prometheus.Counter
}

// New creates a Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaudit_evaluations_total",
			Help: "Total compliance evaluations recorded by resulting status",
		}, []string{"status"}),
		HistoryAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_evaluation_history_appends_total",
			Help: "Total evaluation history rows appended",
		}),
		Exports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_compliance_exports_total",
			Help: "Total compliance export bundles produced",
		}),
		HistoryFreezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_compliance_history_freezes_total",
			Help: "Total save-to-history batch flag flips",
		}),
	}
}

// IncrementEvaluation records an evaluation write.
func (m *Metrics) IncrementEvaluation(status string) {
	if m != nil {
		m.Evaluations.WithLabelValues(status).Inc()
	}
}

// IncrementHistoryAppend records a history row append.
func (m *Metrics) IncrementHistoryAppend() {
	if m != nil {
		m.HistoryAppends.Inc()
	}
}

// IncrementExport records an export.
func (m *Metrics) IncrementExport() {
	if m != nil {
		m.Exports.Inc()
	}
}

// IncrementHistoryFreeze records a save-to-history call.
func (m *Metrics) IncrementHistoryFreeze() {
	if m != nil {
		m.HistoryFreezes.Inc()
	}
}

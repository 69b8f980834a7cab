// Package metrics exposes Prometheus counters for the text module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts text registrations and cascade deletions.
type Metrics struct {
	TextsCreated prometheus.Counter
	Cascades     prometheus.Counter
	Requirements *prometheus.CounterVec
}

// New registers the text metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		TextsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_texts_created_total",
			Help: "Number of legal texts registered.",
		}),
		Cascades: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_text_cascade_deletes_total",
			Help: "Number of text cascade deletions executed.",
		}),
		Requirements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaudit_requirement_mutations_total",
			Help: "Requirement create/update/delete operations.",
		}, []string{"operation"}),
	}
}

// IncrementTextCreated counts one registered text. Nil-safe.
func (m *Metrics) IncrementTextCreated() {
	if m == nil {
		return
	}
	m.TextsCreated.Inc()
}

// IncrementCascade counts one completed cascade deletion. Nil-safe.
func (m *Metrics) IncrementCascade() {
	if m == nil {
		return
	}
	m.Cascades.Inc()
}

// IncrementRequirementMutation counts one requirement mutation. Nil-safe.
func (m *Metrics) IncrementRequirementMutation(operation string) {
	if m == nil {
		return
	}
	m.Requirements.WithLabelValues(operation).Inc()
}

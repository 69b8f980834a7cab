// Package metrics provides observability for the review module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts review lifecycle activity.
type Metrics struct {
	ReviewsCreated prometheus.Counter
	Transitions    *prometheus.CounterVec
	PDFsGenerated  prometheus.Counter
	ItemMutations  *prometheus.CounterVec
}

// New creates a Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		ReviewsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_reviews_created_total",
			Help: "Total management reviews created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaudit_review_transitions_total",
			Help: "Total review status transitions by target status",
		}, []string{"to"}),
		PDFsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_review_pdfs_generated_total",
			Help: "Total review PDF renderings",
		}),
		ItemMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaudit_review_item_mutations_total",
			Help: "Total review item mutations by kind and operation",
		}, []string{"kind", "op"}),
	}
}

// IncrementCreated records a review creation.
func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.ReviewsCreated.Inc()
	}
}

// IncrementTransition records a successful status transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}

// IncrementPDF records a successful rendering.
func (m *Metrics) IncrementPDF() {
	if m != nil {
		m.PDFsGenerated.Inc()
	}
}

// IncrementItemMutation records a child item create/edit/delete.
func (m *Metrics) IncrementItemMutation(kind, op string) {
	if m != nil {
		m.ItemMutations.WithLabelValues(kind, op).Inc()
	}
}

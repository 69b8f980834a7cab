// Package metrics exposes Prometheus instrumentation for the action module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the action module counters.
type Metrics struct {
	ActionsCreated    prometheus.Counter
	ActionMutations   *prometheus.CounterVec
	NotificationsSent prometheus.Counter
}

// New creates a Metrics instance with all action metrics registered.
func New() *Metrics {
	return &Metrics{
		ActionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_actions_created_total",
			Help: "Total corrective actions created",
		}),
		ActionMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaudit_action_mutations_total",
			Help: "Total action updates and deletes by operation",
		}, []string{"operation"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lexaudit_notifications_sent_total",
			Help: "Total notifications created for responsible users",
		}),
	}
}

func (m *Metrics) IncrementActionCreated() {
	if m == nil {
		return
	}
	m.ActionsCreated.Inc()
}

func (m *Metrics) IncrementActionMutation(operation string) {
	if m == nil {
		return
	}
	m.ActionMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementNotificationSent() {
	if m == nil {
		return
	}
	m.NotificationsSent.Inc()
}

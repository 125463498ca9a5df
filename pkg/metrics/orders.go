package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle activity.
type OrderMetrics struct {
	created        prometheus.Counter
	statusChanges  *prometheus.CounterVec
	cancelRejected prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created at checkout.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	cancelRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancel_rejected_total",
		Help: "Cancellation attempts refused because of the current status.",
	})
	reg.MustRegister(created, statusChanges, cancelRejected)
	return &OrderMetrics{
		created:        created,
		statusChanges:  statusChanges,
		cancelRejected: cancelRejected,
	}
}

// IncCreated counts a new order.
func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncStatusChange counts a transition to status.
func (m *OrderMetrics) IncStatusChange(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncCancelRejected counts a refused cancellation.
func (m *OrderMetrics) IncCancelRejected() {
	if m == nil || m.cancelRejected == nil {
		return
	}
	m.cancelRejected.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrderMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.IncCreated()
	m.IncCreated()
	m.IncStatusChange("cancelled")
	m.IncStatusChange("")
	m.IncCancelRejected()

	if got := testutil.ToFloat64(m.created); got != 2 {
		t.Fatalf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanges.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("expected 1 cancelled transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanges.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty status to be labelled unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.cancelRejected); got != 1 {
		t.Fatalf("expected 1 rejected cancel, got %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewOrderMetrics(nil)
	m.IncCreated()
	m.IncStatusChange("pending")
	m.IncCancelRejected()

	var nilMetrics *OrderMetrics
	nilMetrics.IncCreated()

	h := NewHTTPMetrics(nil)
	h.Observe(http.MethodGet, "/health/live", http.StatusOK, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe(http.MethodPost, "/api/v1/orders", http.StatusCreated, 20*time.Millisecond)

	if count := testutil.CollectAndCount(h.duration); count != 1 {
		t.Fatalf("expected one series, got %d", count)
	}
}

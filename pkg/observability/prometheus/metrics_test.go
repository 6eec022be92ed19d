package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pulsekit/pulse/pkg/bus"
)

func TestMetrics_ObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	msg := bus.Signal("chart.refresh", bus.WithAffinity(bus.AffinityWorker))

	m.MessageFired(msg, 3)
	m.MessageFired(msg, 1)
	m.MessageDelivered(msg, "chart-1")
	m.HandlerFault(msg, "chart-2", "boom")
	m.MessageDropped(msg, "worker-queue")

	if got := testutil.ToFloat64(m.MessagesFired.WithLabelValues("chart.refresh", "worker")); got != 2 {
		t.Errorf("fired counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Deliveries.WithLabelValues("chart.refresh")); got != 1 {
		t.Errorf("deliveries counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HandlerFaults.WithLabelValues("chart.refresh")); got != 1 {
		t.Errorf("faults counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MessagesDropped.WithLabelValues("chart.refresh", "worker-queue")); got != 1 {
		t.Errorf("dropped counter = %v, want 1", got)
	}
}

func TestGetMetrics_Singleton(t *testing.T) {
	if GetMetrics() != GetMetrics() {
		t.Error("GetMetrics() returned distinct instances")
	}
}

// Compile-time check that Metrics satisfies bus.Observer.
var _ bus.Observer = (*Metrics)(nil)

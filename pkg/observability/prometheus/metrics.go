// Package prometheus exposes bus activity as Prometheus metrics. The
// Metrics type implements bus.Observer, so wiring is one option on
// bus construction:
//
//	m := prometheus.GetMetrics()
//	b := bus.New(ctx, cfg, bus.WithObserver(m))
package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pulsekit/pulse/pkg/bus"
)

var (
	// DefaultRegistry is the registry the inspector's /metrics
	// endpoint serves.
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer labels everything with the service name.
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "pulse"}, DefaultRegistry)

	metricsOnce sync.Once
	metrics     *Metrics
)

// Metrics counts bus activity. All vectors are registered with
// promauto at construction.
type Metrics struct {
	MessagesFired   *prometheus.CounterVec
	MessagesDropped *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
	HandlerFaults   *prometheus.CounterVec
	FiredCandidates *prometheus.HistogramVec
}

// GetMetrics returns the process-wide metrics instance, creating it
// on first use against DefaultRegisterer.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics(DefaultRegisterer)
	})
	return metrics
}

// NewMetrics creates a metrics collection registered with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	return &Metrics{
		MessagesFired: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_messages_fired_total",
				Help: "Total number of messages fired on the bus",
			},
			[]string{"kind", "affinity"},
		),
		MessagesDropped: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_messages_dropped_total",
				Help: "Batches dropped because a target queue was full",
			},
			[]string{"kind", "reason"},
		),
		Deliveries: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_deliveries_total",
				Help: "Handler invocations that returned normally",
			},
			[]string{"kind"},
		),
		HandlerFaults: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_handler_faults_total",
				Help: "Handler invocations that panicked (isolated)",
			},
			[]string{"kind"},
		),
		FiredCandidates: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_fired_candidates",
				Help:    "Matching subscribers per fire call after filtering",
				Buckets: prometheus.LinearBuckets(0, 2, 10),
			},
			[]string{"kind"},
		),
	}
}

// MessageFired implements bus.Observer.
func (m *Metrics) MessageFired(msg bus.Message, candidates int) {
	m.MessagesFired.WithLabelValues(string(msg.Kind()), msg.Affinity().String()).Inc()
	m.FiredCandidates.WithLabelValues(string(msg.Kind())).Observe(float64(candidates))
}

// MessageDelivered implements bus.Observer.
func (m *Metrics) MessageDelivered(msg bus.Message, _ bus.OwnerID) {
	m.Deliveries.WithLabelValues(string(msg.Kind())).Inc()
}

// HandlerFault implements bus.Observer.
func (m *Metrics) HandlerFault(msg bus.Message, _ bus.OwnerID, _ any) {
	m.HandlerFaults.WithLabelValues(string(msg.Kind())).Inc()
}

// MessageDropped implements bus.Observer.
func (m *Metrics) MessageDropped(msg bus.Message, reason string) {
	m.MessagesDropped.WithLabelValues(string(msg.Kind()), reason).Inc()
}

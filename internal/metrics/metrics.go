// Package metrics exposes Prometheus collectors for the status bus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/statusbus/internal/bus"
)

// Recorder implements bus.Metrics on top of Prometheus collectors registered
// against an explicit registry. All methods are safe for concurrent use.
type Recorder struct {
	emitted   *prometheus.CounterVec
	delivered *prometheus.CounterVec
	dropped   prometheus.Counter
	active    prometheus.Gauge
	duration  prometheus.Histogram
}

var _ bus.Metrics = (*Recorder)(nil)

// NewRecorder registers the collectors against the provided registry.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusbus_events_emitted_total",
			Help: "Events accepted by the bus, partitioned by kind.",
		}, []string{"kind"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusbus_events_delivered_total",
			Help: "Per-listener deliveries, partitioned by kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusbus_events_dropped_total",
			Help: "Events discarded because they were invalid or the bus was closed.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statusbus_listeners_active",
			Help: "Registered listeners that have not stopped.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statusbus_delivery_duration_seconds",
			Help:    "Time spent in listener handlers and the status sink per delivery.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
	for _, collector := range []prometheus.Collector{
		r.emitted,
		r.delivered,
		r.dropped,
		r.active,
		r.duration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register statusbus collector: %w", err)
		}
	}
	return r, nil
}

// EventEmitted counts an accepted event.
func (r *Recorder) EventEmitted(kind bus.Kind) {
	r.emitted.WithLabelValues(string(kind)).Inc()
}

// EventDelivered counts one per-listener delivery.
func (r *Recorder) EventDelivered(kind bus.Kind) {
	r.delivered.WithLabelValues(string(kind)).Inc()
}

// EventDropped counts a discarded event.
func (r *Recorder) EventDropped() {
	r.dropped.Inc()
}

// ListenersActive records the current non-stopped listener count.
func (r *Recorder) ListenersActive(n int) {
	r.active.Set(float64(n))
}

// DeliveryDuration observes the out-of-lock delivery time, excluding pacing
// waits.
func (r *Recorder) DeliveryDuration(d time.Duration) {
	r.duration.Observe(d.Seconds())
}

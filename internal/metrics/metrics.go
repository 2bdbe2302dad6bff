// Package metrics exposes Prometheus instrumentation for the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many instances as they need.
type Metrics struct {
	registry       *prometheus.Registry
	delivered      prometheus.Counter
	dropped        prometheus.Counter
	evicted        prometheus.Counter
	pendingDropped prometheus.Counter
	drains         prometheus.Counter
	drainBatch     prometheus.Histogram
	retained       prometheus.Gauge
	running        prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafka_lens_records_delivered_total",
		Help: "Records normalized and queued for the retained buffer",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafka_lens_records_dropped_total",
		Help: "Records discarded because the consumer was stopping or had no sink",
	})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafka_lens_records_evicted_total",
		Help: "Records evicted from the front of the retained buffer",
	})
	pendingDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafka_lens_pending_dropped_total",
		Help: "Queued records discarded because the pending queue hit its cap",
	})
	drains := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kafka_lens_drains_total",
		Help: "Non-empty drains of the pending queue into the retained buffer",
	})
	drainBatch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kafka_lens_drain_batch_size",
		Help:    "Number of records moved per drain",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	retained := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_lens_retained_records",
		Help: "Records currently held in the retained buffer",
	})
	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kafka_lens_consumer_running",
		Help: "1 while a subscription is running, 0 otherwise",
	})

	reg.MustRegister(delivered, dropped, evicted, pendingDropped, drains, drainBatch, retained, running)

	return &Metrics{
		registry:       reg,
		delivered:      delivered,
		dropped:        dropped,
		evicted:        evicted,
		pendingDropped: pendingDropped,
		drains:         drains,
		drainBatch:     drainBatch,
		retained:       retained,
		running:        running,
	}
}

// RecordDelivered counts a record pushed to the buffer.
func (m *Metrics) RecordDelivered() { m.delivered.Inc() }

// RecordDropped counts a record that arrived after its subscription stopped.
func (m *Metrics) RecordDropped() { m.dropped.Inc() }

// RecordEvicted counts retained records pushed out by capacity.
func (m *Metrics) RecordEvicted(n int) { m.evicted.Add(float64(n)) }

// RecordPendingDropped counts pending records dropped by the max_pending cap.
func (m *Metrics) RecordPendingDropped(n int) { m.pendingDropped.Add(float64(n)) }

// RecordDrain observes one drain that moved batch records and left retained in the buffer.
func (m *Metrics) RecordDrain(batch, retained int) {
	m.drains.Inc()
	m.drainBatch.Observe(float64(batch))
	m.retained.Set(float64(retained))
}

// RecordReset zeroes the retained gauge.
func (m *Metrics) RecordReset() { m.retained.Set(0) }

// SetRunning sets the consumer running gauge to 1 or 0.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Set(1)
		return
	}
	m.running.Set(0)
}

// Handler serves the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

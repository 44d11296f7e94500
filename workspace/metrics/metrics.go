// Package metrics exposes prometheus collectors for engine submissions and
// sandbox progress on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workspace"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	gasUsed     *prometheus.HistogramVec
	blockHeight prometheus.Gauge
	runs        prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry together
// with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transactions submitted to the engine by kind and status",
		}, []string{"kind", "status"}),
		gasUsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gas_used",
			Help:      "Gas used per executed transaction",
			Buckets:   prometheus.ExponentialBuckets(21_000, 2, 12),
		}, []string{"kind"}),
		blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sandbox_block_height",
			Help:      "Latest sandbox block height",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed demo runs",
		}),
	}

	m.registry.MustRegister(
		m.submissions,
		m.gasUsed,
		m.blockHeight,
		m.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSubmission counts a submission and, when executed, its gas.
func (m *Metrics) ObserveSubmission(kind, status string, gasUsed uint64) {
	m.submissions.WithLabelValues(kind, status).Inc()
	if gasUsed > 0 {
		m.gasUsed.WithLabelValues(kind).Observe(float64(gasUsed))
	}
}

// SetBlockHeight records the sandbox head.
func (m *Metrics) SetBlockHeight(height uint64) {
	m.blockHeight.Set(float64(height))
}

// RunCompleted counts a finished run.
func (m *Metrics) RunCompleted() {
	m.runs.Inc()
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

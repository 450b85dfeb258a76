// Package metrics exposes Prometheus collectors for registry rebuilds and
// query traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "mimic"

// Metrics groups the collectors updated by the registry store and the
// request surfaces.
type Metrics struct {
	Rebuilds         prometheus.Counter
	RebuildFailures  prometheus.Counter
	RebuildDuration  prometheus.Histogram
	Fragments        *prometheus.GaugeVec
	Generation       prometheus.Gauge
	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "rebuilds_total",
			Help:      "Total number of successful registry rebuilds",
		}),
		RebuildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "rebuild_failures_total",
			Help:      "Total number of registry rebuilds that failed and kept the previous snapshot",
		}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent building a registry snapshot",
			Buckets:   prometheus.DefBuckets,
		}),
		Fragments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "fragments",
			Help:      "Number of fragments in the current snapshot",
		}, []string{"category"}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "generation",
			Help:      "Generation number of the current snapshot",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served, by surface, operation and status",
		}, []string{"surface", "operation", "status"}),
		RequestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency, by surface and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"surface", "operation"}),
	}
}

// Collectors returns every collector in m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Rebuilds,
		m.RebuildFailures,
		m.RebuildDuration,
		m.Fragments,
		m.Generation,
		m.Requests,
		m.RequestDurations,
	}
}

// NewRegistry returns a Prometheus registry holding m plus the Go runtime and
// process collectors.
func NewRegistry(m *Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ObserveRequest records one request outcome.
func (m *Metrics) ObserveRequest(surface, operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Requests.WithLabelValues(surface, operation, status).Inc()
	m.RequestDurations.WithLabelValues(surface, operation).Observe(seconds)
}

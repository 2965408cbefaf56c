// Package metrics exposes Prometheus collectors for data loads, view
// renders and per-metric computation outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so tests can create as many as they like.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
	computations *prometheus.CounterVec
	renders      *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewRecorder creates and registers the dashboard collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churndash",
			Name:      "dataset_loads_total",
			Help:      "Dataset reads from the source, by outcome.",
		}, []string{"status"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "churndash",
			Name:      "dataset_load_seconds",
			Help:      "Time spent reading and coercing the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churndash",
			Name:      "computations_total",
			Help:      "KPI, analytics and EDA computations, by view and status.",
		}, []string{"view", "key", "status"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churndash",
			Name:      "view_renders_total",
			Help:      "View payloads produced, by mode.",
		}, []string{"mode"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "churndash",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}

	r.registry.MustRegister(
		r.loads,
		r.loadDuration,
		r.computations,
		r.renders,
		r.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveLoad records one source read
func (r *Recorder) ObserveLoad(ok bool, d time.Duration) {
	if r == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	r.loads.WithLabelValues(status).Inc()
	r.loadDuration.Observe(d.Seconds())
}

// ObserveComputation records the outcome of one metric or chart
func (r *Recorder) ObserveComputation(view, key, status string) {
	if r == nil {
		return
	}
	r.computations.WithLabelValues(view, key, status).Inc()
}

// ObserveRender records one view payload
func (r *Recorder) ObserveRender(mode string) {
	if r == nil {
		return
	}
	r.renders.WithLabelValues(mode).Inc()
}

// SetSessions reports the live session count
func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Computations exposes the per-computation counter
func (r *Recorder) Computations() *prometheus.CounterVec {
	return r.computations
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

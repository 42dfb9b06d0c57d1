// Package metrics records tool-call outcomes in a Prometheus registry that
// can be dumped in text exposition format.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder owns a private registry so several clients never collide
type Recorder struct {
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewRecorder creates a recorder with its collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcall_calls_total",
				Help: "Tool calls by service and terminal state",
			},
			[]string{"service", "state"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpcall_call_failures_total",
				Help: "Failed tool calls by service and error kind",
			},
			[]string{"service", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpcall_call_duration_seconds",
				Help:    "Wall-clock duration of tool calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcpcall_calls_inflight",
			Help: "Tool calls currently in progress",
		}),
	}
	r.registry.MustRegister(r.calls, r.failures, r.duration, r.inflight)
	return r
}

// Start marks a call as in flight and returns the function that ends it
func (r *Recorder) Start() func() {
	if r == nil {
		return func() {}
	}
	r.inflight.Inc()
	return r.inflight.Dec
}

// Observe records one finished call. kind is empty for successes.
func (r *Recorder) Observe(service, state, kind string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.calls.WithLabelValues(service, state).Inc()
	r.duration.WithLabelValues(service).Observe(elapsed.Seconds())
	if kind != "" {
		r.failures.WithLabelValues(service, kind).Inc()
	}
}

// Registry exposes the underlying registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WritePrometheus writes every collected family to w in text format
func (r *Recorder) WritePrometheus(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

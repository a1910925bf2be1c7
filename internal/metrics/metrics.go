// Package metrics exports Prometheus instrumentation for bridge calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes used as the outcome label of bridge_calls_total.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
	OutcomeTimeout     = "timeout"
	OutcomeDestroyed   = "destroyed"
	OutcomeInternal    = "internal"
)

// Recorder records call counts, in-flight calls and latency.
// A nil *Recorder records nothing.
type Recorder struct {
	calls    *prometheus.CounterVec
	pending  prometheus.Gauge
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// A nil reg leaves the collectors unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_calls_total",
			Help: "Bridge calls by command and outcome.",
		}, []string{"cmd", "outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_pending_calls",
			Help: "Calls waiting for a host reply.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_call_duration_seconds",
			Help:    "Time from dispatch to settlement.",
			Buckets: prometheus.DefBuckets,
		}, []string{"cmd"}),
	}

	if reg != nil {
		reg.MustRegister(r.calls, r.pending, r.duration)
	}

	return r
}

// RecordSent marks a call as posted to the host.
func (r *Recorder) RecordSent() {
	if r == nil {
		return
	}

	r.pending.Inc()
}

// RecordSettled marks a posted call as settled.
func (r *Recorder) RecordSettled() {
	if r == nil {
		return
	}

	r.pending.Dec()
}

// RecordCall counts one finished call and observes its latency.
func (r *Recorder) RecordCall(cmd, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.calls.WithLabelValues(cmd, outcome).Inc()
	r.duration.WithLabelValues(cmd).Observe(elapsed.Seconds())
}

// Collectors returns the underlying collectors.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.calls, r.pending, r.duration}
}

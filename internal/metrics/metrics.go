// Package metrics exports lab activity as prometheus series.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/synthesis-lab/internal/synthesis"
)

// Recorder implements synthesis.Observer on a private registry.
type Recorder struct {
	registry  *prometheus.Registry
	started   prometheus.Counter
	cancelled prometheus.Counter
	rejected  *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
	rate      prometheus.Histogram
	duration  prometheus.Histogram
}

// NewRecorder creates a Recorder with all series registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "labsim",
			Name:      "synthesis_started_total",
			Help:      "Synthesis processes started.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "labsim",
			Name:      "synthesis_cancelled_total",
			Help:      "Synthesis processes cancelled in preparation.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labsim",
			Name:      "synthesis_rejected_total",
			Help:      "Rejected lab operations by operation and error code.",
		}, []string{"op", "code"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labsim",
			Name:      "synthesis_outcomes_total",
			Help:      "Finished synthesis processes by result.",
		}, []string{"result"}),
		rate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labsim",
			Name:      "synthesis_success_rate",
			Help:      "Success rate of started processes.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labsim",
			Name:      "synthesis_duration_seconds",
			Help:      "Nominal duration of started processes.",
			Buckets:   prometheus.LinearBuckets(60, 30, 8),
		}),
	}
	r.registry.MustRegister(r.started, r.cancelled, r.rejected, r.outcomes, r.rate, r.duration)
	return r
}

// Started counts a new process.
func (r *Recorder) Started(p synthesis.Process) {
	r.started.Inc()
	r.rate.Observe(p.SuccessRate)
	r.duration.Observe(p.Duration.Seconds())
}

// Rejected counts a failed operation under its lab error code.
func (r *Recorder) Rejected(op string, err error) {
	code := "unknown"
	var labErr *synthesis.Error
	if errors.As(err, &labErr) {
		code = string(labErr.Code)
	}
	r.rejected.WithLabelValues(op, code).Inc()
}

// Cancelled counts an abandoned process.
func (r *Recorder) Cancelled(synthesis.Process) {
	r.cancelled.Inc()
}

// Finalized counts a finished process.
func (r *Recorder) Finalized(f synthesis.Final) {
	result := "failure"
	if f.Success {
		result = "success"
	}
	r.outcomes.WithLabelValues(result).Inc()
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

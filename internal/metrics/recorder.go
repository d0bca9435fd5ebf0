package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Stage names recorded by the runner
const (
	StageAssemble = "assemble"
	StagePackage  = "package"
	StageBuild    = "build"
	StageSubmit   = "submit"
)

// Outcomes recorded per run
const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
)

// Recorder exposes run metrics. A nil *Recorder records nothing.
type Recorder struct {
	runs    *prometheus.CounterVec
	stages  *prometheus.HistogramVec
	shipped prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clambda_runs_total",
			Help: "Continuation runs by outcome",
		}, []string{"outcome"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clambda_stage_duration_seconds",
			Help:    "Time spent in each run stage",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"stage"}),
		shipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clambda_shipped_artifacts",
			Help: "Artifacts in the last submitted job description",
		}),
	}

	for _, c := range []prometheus.Collector{r.runs, r.stages, r.shipped} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

// ObserveStage records how long a stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished counts a finished run
func (r *Recorder) RunFinished(outcome string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
}

// RunsCounter returns the run counter for an outcome. A nil recorder returns
// an unregistered counter.
func (r *Recorder) RunsCounter(outcome string) prometheus.Counter {
	if r == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "clambda_runs_total"})
	}
	return r.runs.WithLabelValues(outcome)
}

// SetShipped records the artifact count of the last job
func (r *Recorder) SetShipped(n int) {
	if r == nil {
		return
	}
	r.shipped.Set(float64(n))
}

// WriteText renders everything in g in the Prometheus text format
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		return closer.Close()
	}
	return nil
}

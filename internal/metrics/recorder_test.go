package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	r, err := NewRecorder(registry)
	require.NoError(t, err)

	r.ObserveStage(StageAssemble, 20*time.Millisecond)
	r.RunFinished(OutcomeSubmitted)
	r.RunFinished(OutcomeSubmitted)
	r.RunFinished(OutcomeFailed)
	r.SetShipped(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RunsCounter(OutcomeSubmitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsCounter(OutcomeFailed)))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, registry))
	out := buf.String()
	assert.Contains(t, out, "clambda_shipped_artifacts 4")
	assert.Contains(t, out, `clambda_stage_duration_seconds_count{stage="assemble"} 1`)
	assert.True(t, strings.HasPrefix(out, "# HELP"))
}

func TestRecorderRejectsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewRecorder(registry)
	require.NoError(t, err)
	_, err = NewRecorder(registry)
	assert.Error(t, err)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveStage(StageSubmit, time.Second)
		r.RunFinished(OutcomeFailed)
		r.SetShipped(1)
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RunsCounter(OutcomeFailed)))
}

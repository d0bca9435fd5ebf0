package lambda

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/psantana5/clusterlambda/internal/archivetest"
	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/demo"
	"github.com/psantana5/clusterlambda/internal/jobsink"
	"github.com/psantana5/clusterlambda/internal/metrics"
	"github.com/psantana5/clusterlambda/pkg/continuation"
	"github.com/psantana5/clusterlambda/pkg/models"
	"github.com/psantana5/clusterlambda/pkg/submit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leakyFn struct {
	Done chan struct{}
}

func (l leakyFn) Run(ctx context.Context) error { return nil }

func init() {
	continuation.Register("lambdatest.leaky", leakyFn{})
}

type countingSubmitter struct {
	calls int
	jobs  []*models.JobDescription
	err   error
}

func (c *countingSubmitter) Submit(ctx context.Context, job *models.JobDescription) (*models.JobReceipt, error) {
	c.calls++
	c.jobs = append(c.jobs, job)
	if c.err != nil {
		return nil, &submit.SubmissionFailedError{Cause: c.err}
	}
	return &models.JobReceipt{ID: "fake", Status: models.JobStatusAccepted, Artifacts: len(job.ArtifactPaths)}, nil
}

func pathScanner(ctx ExecutionContext) Scanner {
	return catalog.NewScanner(catalog.NewPathSource(ctx.LoaderIdentity, ctx.SearchPath))
}

type fixture struct {
	root   string
	app    string
	driver string
	extra  string
	outDir string
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	f := &fixture{
		root:   root,
		app:    archivetest.WriteJar(t, filepath.Join(root, "opt", "app", "app.jar")),
		driver: archivetest.WriteJar(t, filepath.Join(root, "opt", "drivers", "driver.jar"), "libs/extra.jar"),
		extra:  archivetest.WriteJar(t, filepath.Join(root, "opt", "drivers", "libs", "extra.jar")),
		outDir: filepath.Join(root, "out"),
	}
	require.NoError(t, os.MkdirAll(f.outDir, 0755))
	return f
}

func (f *fixture) options(sub submit.Submitter, searchPath ...string) Options {
	if len(searchPath) == 0 {
		searchPath = []string{f.app, f.driver}
	}
	ctx := ExecutionContext{LoaderIdentity: "example.com/app", SearchPath: searchPath}
	return Options{
		Context:     &ctx,
		ArtifactDir: f.outDir,
		Submitter:   sub,
		Scanner:     pathScanner,
	}
}

func artifactsIn(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunOnClusterEndToEnd(t *testing.T) {
	f := newFixture(t)

	sink, err := jobsink.NewServer(jobsink.DefaultConfig(), nil)
	require.NoError(t, err)
	server := httptest.NewServer(sink.Handler())
	defer server.Close()

	client, err := submit.NewClient(submit.Config{ServiceURL: server.URL})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	require.NoError(t, err)

	opts := f.options(client)
	opts.Metrics = recorder
	receipt, err := NewRunner(opts).RunOnCluster(context.Background(), demo.Answer{Value: 42})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, receipt.Status)
	assert.Equal(t, EntryPointID, receipt.EntryPoint)
	assert.Equal(t, 4, receipt.Artifacts)

	jobs := sink.Store().GetAllJobs()
	require.Len(t, jobs, 1)
	paths := jobs[0].Description.ArtifactPaths
	require.Len(t, paths, 4)
	assert.Equal(t, []string{f.app, f.driver, f.extra}, paths[:3])
	assert.Equal(t, f.outDir, filepath.Dir(paths[3]))
	assert.True(t, strings.HasPrefix(filepath.Base(paths[3]), "cont-"))

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.RunsCounter(metrics.OutcomeSubmitted)))

	// The remote side reproduces the captured value
	var out bytes.Buffer
	demo.Out = &out
	defer func() { demo.Out = os.Stdout }()

	require.NoError(t, RunEntryPoint(context.Background(), paths))
	assert.Equal(t, "42\n", out.String())
}

func TestPrepareDoesNotSubmit(t *testing.T) {
	f := newFixture(t)
	sub := &countingSubmitter{}

	job, err := NewRunner(f.options(sub)).Prepare(context.Background(), demo.Sum{Values: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 0, sub.calls)
	assert.Len(t, job.ArtifactPaths, 4)
	assert.Len(t, artifactsIn(t, f.outDir), 1)
}

func TestRunOnClusterPackagingFailureSkipsSubmission(t *testing.T) {
	f := newFixture(t)
	sub := &countingSubmitter{}

	_, err := NewRunner(f.options(sub)).RunOnCluster(context.Background(), leakyFn{Done: make(chan struct{})})

	var se *SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, sub.calls)
	assert.Empty(t, artifactsIn(t, f.outDir))
}

func TestRunOnClusterResolutionFailureLeavesNoArtifact(t *testing.T) {
	f := newFixture(t)
	remote := archivetest.WriteJar(t, filepath.Join(f.root, "opt", "remote.jar"), "https://repo.example.com/lib.jar")
	sub := &countingSubmitter{}

	_, err := NewRunner(f.options(sub, f.app, remote)).RunOnCluster(context.Background(), demo.Answer{Value: 1})

	var re *ManifestResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 0, sub.calls)
	assert.Empty(t, artifactsIn(t, f.outDir))
}

func TestRunOnClusterSubmissionFailure(t *testing.T) {
	f := newFixture(t)
	sub := &countingSubmitter{err: errors.New("connection refused")}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	require.NoError(t, err)
	opts := f.options(sub)
	opts.Metrics = recorder

	_, err = NewRunner(opts).RunOnCluster(context.Background(), demo.Answer{Value: 1})

	var sfe *SubmissionFailedError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.RunsCounter(metrics.OutcomeFailed)))
}

func TestRunOnClusterToleratesIncompleteScan(t *testing.T) {
	f := newFixture(t)
	sub := &countingSubmitter{}

	_, err := NewRunner(f.options(sub, filepath.Join(f.root, "missing.jar"), f.app)).RunOnCluster(context.Background(), demo.Answer{Value: 1})
	require.NoError(t, err)
	require.Len(t, sub.jobs, 1)
	assert.Equal(t, f.app, sub.jobs[0].ArtifactPaths[0])
	assert.Len(t, sub.jobs[0].ArtifactPaths, 2)
}

func TestRunOnClusterRequiresSubmitter(t *testing.T) {
	f := newFixture(t)
	_, err := NewRunner(f.options(nil)).RunOnCluster(context.Background(), demo.Answer{Value: 1})
	require.Error(t, err)
}

func TestRunOnClusterPreservesGreeterVariant(t *testing.T) {
	f := newFixture(t)
	sub := &countingSubmitter{}

	_, err := NewRunner(f.options(sub)).RunOnCluster(context.Background(), demo.Greet{Name: "Ada", Greeter: demo.Spanish{Formal: true}})
	require.NoError(t, err)

	artifact, err := continuation.Load(sub.jobs[0].ContinuationPath())
	require.NoError(t, err)
	greet, ok := artifact.Fn.(demo.Greet)
	require.True(t, ok)
	assert.Equal(t, demo.Spanish{Formal: true}, greet.Greeter)
}

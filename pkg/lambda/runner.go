// Package lambda runs a continuation on a cluster node. It packages the
// continuation, computes the artifacts the remote process needs to load the
// caller's code, and submits both as one job description.
package lambda

import (
	"context"
	"fmt"
	"time"

	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/classpath"
	"github.com/psantana5/clusterlambda/internal/jobdesc"
	"github.com/psantana5/clusterlambda/internal/logging"
	"github.com/psantana5/clusterlambda/internal/manifest"
	"github.com/psantana5/clusterlambda/internal/metrics"
	"github.com/psantana5/clusterlambda/internal/tracing"
	"github.com/psantana5/clusterlambda/pkg/continuation"
	"github.com/psantana5/clusterlambda/pkg/models"
	"github.com/psantana5/clusterlambda/pkg/submit"
)

// EntryPointID names the remote bootstrap that loads and runs the
// continuation artifact
const EntryPointID = "clusterlambda/continuation-entrypoint"

type (
	// ExecutionContext identifies the caller's application loader
	ExecutionContext = catalog.ExecutionContext
	// Scanner lists the artifacts visible to the process
	Scanner = classpath.Scanner
	// Logger is the structured logger used by the runner
	Logger = logging.Logger
)

// CurrentContext returns the execution context of the running binary with
// the given search path
func CurrentContext(searchPath []string) ExecutionContext {
	return catalog.CurrentContext(searchPath)
}

// Options configures a Runner
type Options struct {
	// Context selects which loader's artifacts are shipped. Defaults to
	// CurrentContext(nil).
	Context *ExecutionContext
	// EntryPoint defaults to EntryPointID
	EntryPoint string
	// ArtifactDir receives continuation artifacts; defaults to the system
	// temp directory
	ArtifactDir string
	// Submitter is required for RunOnCluster
	Submitter submit.Submitter
	// Scanner overrides process scanning
	Scanner func(ExecutionContext) Scanner

	Logger  *Logger
	Metrics *metrics.Recorder
}

// Runner prepares and submits continuations. Every call rescans the
// environment; nothing is cached between calls.
type Runner struct {
	execCtx    ExecutionContext
	entryPoint string
	packager   *continuation.Packager
	assembler  *classpath.Assembler
	submitter  submit.Submitter
	logger     *logging.Logger
	metrics    *metrics.Recorder
}

// NewRunner creates a runner from opts
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("lambda")

	execCtx := CurrentContext(nil)
	if opts.Context != nil {
		execCtx = *opts.Context
	}
	entryPoint := opts.EntryPoint
	if entryPoint == "" {
		entryPoint = EntryPointID
	}

	var assembler *classpath.Assembler
	if opts.Scanner != nil {
		assembler = classpath.NewAssemblerWithScanner(
			classpath.ScannerFactory(opts.Scanner),
			manifest.NewExpander(logger),
			logger,
		)
	} else {
		assembler = classpath.NewAssembler(logger)
	}

	return &Runner{
		execCtx:    execCtx,
		entryPoint: entryPoint,
		packager:   continuation.NewPackager(opts.ArtifactDir),
		assembler:  assembler,
		submitter:  opts.Submitter,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Prepare assembles the classpath, packages fn and builds the job
// description without submitting it. The classpath is resolved first so a
// manifest error leaves no artifact behind.
func (r *Runner) Prepare(ctx context.Context, fn continuation.Fn) (*models.JobDescription, error) {
	ctx, span := tracing.Tracer().Start(ctx, "lambda.prepare")
	defer span.End()

	r.logger.Info("Preparing continuation context switch", logging.Fields{"loader": r.execCtx.LoaderIdentity})

	var paths []string
	err := r.stage(ctx, metrics.StageAssemble, func() error {
		res, err := r.assembler.AssembleDetailed(r.execCtx)
		if err != nil {
			return err
		}
		paths = res.Paths
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var artifact string
	err = r.stage(ctx, metrics.StagePackage, func() error {
		var err error
		artifact, err = r.packager.Package(fn)
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var job *models.JobDescription
	err = r.stage(ctx, metrics.StageBuild, func() error {
		var err error
		job, err = jobdesc.Build(r.entryPoint, paths, artifact)
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to build job description: %w", err)
	}

	span.SetAttributes(tracing.Int("artifacts", len(job.ArtifactPaths)), tracing.String("continuation", artifact))
	if r.logger.Enabled(logging.DEBUG) {
		r.logger.Debug("Artifacts:")
		for _, p := range job.ArtifactPaths {
			r.logger.Debug(p)
		}
	}
	return job, nil
}

// RunOnCluster packages fn with the caller's artifacts and submits it. It
// blocks until the job service accepts or rejects the job. All errors are
// fatal and returned unchanged.
func (r *Runner) RunOnCluster(ctx context.Context, fn continuation.Fn) (*models.JobReceipt, error) {
	receipt, err := r.runOnCluster(ctx, fn)
	if err != nil {
		r.metrics.RunFinished(metrics.OutcomeFailed)
		return nil, err
	}
	r.metrics.RunFinished(metrics.OutcomeSubmitted)
	return receipt, nil
}

func (r *Runner) runOnCluster(ctx context.Context, fn continuation.Fn) (*models.JobReceipt, error) {
	if r.submitter == nil {
		return nil, fmt.Errorf("runner has no submitter")
	}

	ctx, span := tracing.Tracer().Start(ctx, "lambda.run_on_cluster")
	defer span.End()

	job, err := r.Prepare(ctx, fn)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var receipt *models.JobReceipt
	err = r.stage(ctx, metrics.StageSubmit, func() error {
		var err error
		receipt, err = r.submitter.Submit(ctx, job)
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	r.metrics.SetShipped(len(job.ArtifactPaths))
	r.logger.Info("Job submitted", logging.Fields{
		"job_id":    receipt.ID,
		"artifacts": len(job.ArtifactPaths),
	})
	return receipt, nil
}

func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	_, span := tracing.Tracer().Start(ctx, "lambda."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	r.metrics.ObserveStage(name, time.Since(start))
	tracing.RecordError(span, err)
	return err
}

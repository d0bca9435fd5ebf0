package lambda

import (
	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/manifest"
	"github.com/psantana5/clusterlambda/pkg/continuation"
	"github.com/psantana5/clusterlambda/pkg/submit"
)

// Errors surfaced by RunOnCluster. Match them with errors.As.
type (
	// ScanIncompleteError is logged, never returned by RunOnCluster
	ScanIncompleteError = catalog.ScanIncompleteError
	// ManifestResolutionError aborts a run before packaging
	ManifestResolutionError = manifest.ResolutionError
	// SerializationError aborts a run before submission
	SerializationError = continuation.SerializationError
	// SubmissionFailedError carries the job service's failure
	SubmissionFailedError = submit.SubmissionFailedError
)

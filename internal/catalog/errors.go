package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// SourceFailure records one loader source that could not be fully inspected
type SourceFailure struct {
	Source string
	Err    error
}

// ScanIncompleteError is returned next to the entries a scan did find when
// one or more sources failed. It is never fatal.
type ScanIncompleteError struct {
	Failures []SourceFailure
}

func (e *ScanIncompleteError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	return fmt.Sprintf("scan incomplete (%d source failures): %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual source errors
func (e *ScanIncompleteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func (e *ScanIncompleteError) add(source string, err error) {
	e.Failures = append(e.Failures, SourceFailure{Source: source, Err: err})
}

// IsScanIncomplete reports whether err is (or wraps) a ScanIncompleteError
func IsScanIncomplete(err error) bool {
	var target *ScanIncompleteError
	return errors.As(err, &target)
}

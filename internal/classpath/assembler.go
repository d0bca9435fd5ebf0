// Package classpath computes the artifacts a remote process needs to load the
// caller's code: the application loader's archives plus the siblings their
// manifests declare, as an ordered list of unique absolute paths.
package classpath

import (
	"errors"
	"fmt"

	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/logging"
	"github.com/psantana5/clusterlambda/internal/manifest"
)

// Scanner lists the artifacts visible to the process
type Scanner interface {
	Scan() ([]catalog.ArtifactEntry, error)
}

// ScannerFactory builds the scanner for an execution context
type ScannerFactory func(ctx catalog.ExecutionContext) Scanner

// Assembler filters, expands and deduplicates the catalog
type Assembler struct {
	newScanner ScannerFactory
	expander   *manifest.Expander
	logger     *logging.Logger
}

// NewAssembler creates an assembler scanning the real process
func NewAssembler(logger *logging.Logger) *Assembler {
	return NewAssemblerWithScanner(func(ctx catalog.ExecutionContext) Scanner {
		return catalog.ForContext(ctx)
	}, manifest.NewExpander(logger), logger)
}

// NewAssemblerWithScanner creates an assembler with explicit collaborators
func NewAssemblerWithScanner(newScanner ScannerFactory, expander *manifest.Expander, logger *logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.Nop()
	}
	if expander == nil {
		expander = manifest.NewExpander(logger)
	}
	return &Assembler{
		newScanner: newScanner,
		expander:   expander,
		logger:     logger,
	}
}

// Result carries the assembled paths and the entries they came from
type Result struct {
	Paths   []string
	Entries []catalog.ArtifactEntry

	// Incomplete is set when the scan could not inspect every source
	Incomplete *catalog.ScanIncompleteError
}

// Assemble returns the absolute paths of every local archive loaded by the
// application loader of ctx, with manifest references expanded one level.
// Order is first discovery; duplicates are dropped.
func (a *Assembler) Assemble(ctx catalog.ExecutionContext) ([]string, error) {
	res, err := a.AssembleDetailed(ctx)
	if err != nil {
		return nil, err
	}
	return res.Paths, nil
}

// AssembleDetailed is Assemble that also reports the surviving entries and
// any non-fatal scan gaps.
func (a *Assembler) AssembleDetailed(ctx catalog.ExecutionContext) (*Result, error) {
	if ctx.LoaderIdentity == "" {
		return nil, fmt.Errorf("execution context has no loader identity")
	}

	res := &Result{}
	scanned, err := a.newScanner(ctx).Scan()
	if err != nil {
		var incomplete *catalog.ScanIncompleteError
		if !errors.As(err, &incomplete) {
			return nil, fmt.Errorf("failed to scan artifacts: %w", err)
		}
		res.Incomplete = incomplete
		a.logger.Warn("Artifact scan incomplete, continuing with discovered entries", logging.Fields{
			"failures": len(incomplete.Failures),
			"error":    incomplete.Error(),
		})
	}

	set := newOrderedSet()
	for _, entry := range scanned {
		if entry.LoaderIdentity != ctx.LoaderIdentity {
			continue
		}
		expanded, err := a.expander.Expand(entry)
		if err != nil {
			return nil, err
		}
		for _, e := range expanded {
			set.add(e)
		}
	}

	seenPaths := make(map[string]bool)
	for _, entry := range set.entries() {
		path, err := entry.LocalPath()
		if err != nil {
			return nil, &manifest.ResolutionError{
				Archive:   entry.Origin,
				Reference: entry.Location,
				Message:   "cannot resolve to a local path",
				Err:       err,
			}
		}
		if seenPaths[path] {
			continue
		}
		seenPaths[path] = true
		res.Paths = append(res.Paths, path)
		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

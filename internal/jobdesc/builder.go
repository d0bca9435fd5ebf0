// Package jobdesc combines an assembled classpath and a continuation artifact
// into the description submitted to the job execution service.
package jobdesc

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/psantana5/clusterlambda/pkg/models"
)

var (
	// ErrPathCollision means the continuation artifact shares a path with an
	// artifact already on the classpath
	ErrPathCollision = errors.New("continuation path collides with an assembled artifact")
	// ErrDuplicatePath means the assembled classpath repeats a path
	ErrDuplicatePath = errors.New("assembled artifact path is duplicated")
)

// Build returns a description running entryPoint with assembledPaths followed
// by continuationPath. It performs no I/O and does not retain its inputs.
func Build(entryPoint string, assembledPaths []string, continuationPath string) (*models.JobDescription, error) {
	if entryPoint == "" {
		return nil, fmt.Errorf("entry point identifier is required")
	}
	if continuationPath == "" {
		return nil, fmt.Errorf("continuation path is required")
	}
	if !filepath.IsAbs(continuationPath) {
		return nil, fmt.Errorf("continuation path %q is not absolute", continuationPath)
	}

	paths := make([]string, 0, len(assembledPaths)+1)
	seen := make(map[string]bool, len(assembledPaths)+1)
	for _, p := range assembledPaths {
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, p)
		}
		seen[p] = true
		paths = append(paths, p)
	}
	if seen[continuationPath] {
		return nil, fmt.Errorf("%w: %s", ErrPathCollision, continuationPath)
	}
	paths = append(paths, continuationPath)

	return &models.JobDescription{
		EntryPoint:    entryPoint,
		ArtifactPaths: paths,
	}, nil
}

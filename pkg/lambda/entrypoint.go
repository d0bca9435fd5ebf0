package lambda

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/psantana5/clusterlambda/pkg/continuation"
)

// ErrNoArtifacts is returned when the entry point is started without paths
var ErrNoArtifacts = errors.New("no artifact paths given")

// RunEntryPoint is the remote half of RunOnCluster. It checks that every
// shipped artifact is present, loads the continuation from the last path and
// runs it. The continuation's variant must be registered in this binary.
func RunEntryPoint(ctx context.Context, artifactPaths []string) error {
	if len(artifactPaths) == 0 {
		return ErrNoArtifacts
	}

	var missing []error
	for _, p := range artifactPaths {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, fmt.Errorf("artifact %s unavailable: %w", p, err))
		}
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	artifact, err := continuation.Load(artifactPaths[len(artifactPaths)-1])
	if err != nil {
		return err
	}

	if err := artifact.Fn.Run(ctx); err != nil {
		return fmt.Errorf("continuation %s failed: %w", artifact.Kind, err)
	}
	return nil
}

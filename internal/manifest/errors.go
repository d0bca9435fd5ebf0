package manifest

import "fmt"

// ResolutionError reports a manifest reference that cannot be turned into a
// local artifact path. It aborts the whole run.
type ResolutionError struct {
	Archive   string // location of the archive declaring the reference
	Reference string
	Message   string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest reference %q in %s: %s: %v", e.Reference, e.Archive, e.Message, e.Err)
	}
	return fmt.Sprintf("manifest reference %q in %s: %s", e.Reference, e.Archive, e.Message)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

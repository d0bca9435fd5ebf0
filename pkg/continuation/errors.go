package continuation

import "fmt"

// SerializationError reports a continuation that cannot be captured.
// Nothing is left at the artifact's final path when it is returned.
type SerializationError struct {
	Op      string // "validate", "encode" or "write"
	Kind    string // registered name or Go type of the continuation
	Field   string // path of the offending captured value, if any
	Message string
	Err     error
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("cannot serialize continuation %s", e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(" at %s", e.Field)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

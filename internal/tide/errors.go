package tide

import (
	"errors"
	"fmt"
)

// MalformedObservationError reports an input record without a usable
// timestamp, height or type. Index is the zero-based record index within the
// source; Line is the 1-based line number when the source is a file.
type MalformedObservationError struct {
	Index int
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedObservationError) Error() string {
	loc := fmt.Sprintf("record %d", e.Index)
	if e.Line > 0 {
		loc = fmt.Sprintf("%s (line %d)", loc, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed observation at %s: field %q value %q: %v", loc, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed observation at %s: field %q value %q", loc, e.Field, e.Value)
}

func (e *MalformedObservationError) Unwrap() error {
	return e.Err
}

var (
	// ErrNonFiniteHeight is the cause of a MalformedObservationError for a
	// NaN or infinite height
	ErrNonFiniteHeight = errors.New("height must be finite")

	// ErrOutOfOrder is the cause of a MalformedObservationError for an
	// observation earlier than the one before it
	ErrOutOfOrder = errors.New("observation precedes the previous one")
)

// ConfigurationError reports an analysis parameter that cannot be used
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

// ExportError reports a failed backup rotation or write. The data being
// exported is untouched, so the caller can retry with another path.
type ExportError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

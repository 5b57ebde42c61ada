package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable marks a missing file or unreachable resource.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnknownColumns is returned for a table without recognised columns.
	ErrUnknownColumns = errors.New("unrecognised table columns")

	// ErrSourceNotAllowed is returned by SourcePolicy for a path outside the
	// dataset root or a URL when remote sources are disabled.
	ErrSourceNotAllowed = errors.New("source not allowed")
)

// SourceUnavailableError reports an input source that could not be read
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// ParseError reports a record whose timestamp field is not a positive integer
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid timestamp %q: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

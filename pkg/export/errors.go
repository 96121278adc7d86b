package export

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceled is returned once the export was canceled. No output files
	// are written after it.
	ErrCanceled = errors.New("export canceled")

	// ErrSessionClosed is returned for callbacks arriving after Finish.
	ErrSessionClosed = errors.New("export session closed")

	// ErrMalformedBatch is returned for triangle batches that do not hold
	// whole triangles, or facets referencing missing points.
	ErrMalformedBatch = errors.New("malformed triangle batch")

	// ErrUnbalancedStack is returned when a pop does not match its push.
	ErrUnbalancedStack = errors.New("unbalanced transform stack")
)

// WriteError reports a failure writing one of the output files.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

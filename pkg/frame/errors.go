package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrame is returned by Source.Next when no frame is available.
	ErrNoFrame = errors.New("frame: no frame available")

	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("frame: source closed")

	// ErrNotOpen is returned when reading before Open succeeded.
	ErrNotOpen = errors.New("frame: source not open")

	// ErrBadBuffer is returned when a raw buffer does not match its dimensions.
	ErrBadBuffer = errors.New("frame: buffer size does not match dimensions")
)

// OpenError wraps a failure to acquire a frame source. It is the only
// source error that terminates the process.
type OpenError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("frame [%s]: open: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err means the source could not be acquired.
func IsFatal(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}

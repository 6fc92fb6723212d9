// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"os"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether a one-line summary is printed for every processed
// frame. Use --debug-frames to enable these very verbose logs.
var Frames bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// FrameLog prints a message only if per-frame debug mode is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

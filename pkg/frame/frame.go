// Package frame defines the camera frame type and the Source interface that
// every capture backend (local webcam, robot WebRTC stream, test mocks)
// implements.
//
// A Frame lives for exactly one loop iteration: it is produced by a Source,
// consumed by the detection pipeline and then dropped.
package frame

import (
	"context"
	"image"
	"time"
)

// Frame is one decoded camera image plus its capture time.
// Frames are treated as immutable once returned by a Source.
type Frame struct {
	// Image is the decoded color raster.
	Image image.Image

	// Captured is when the source produced the frame.
	Captured time.Time

	// Seq is a per-source, monotonically increasing frame number.
	Seq uint64
}

// New wraps img as a Frame captured now.
func New(img image.Image, seq uint64) *Frame {
	return &Frame{Image: img, Captured: time.Now(), Seq: seq}
}

// Bounds returns the image bounds, or an empty rectangle for a nil frame.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil || f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}

// Valid reports whether the frame carries a non-empty raster.
func (f *Frame) Valid() bool {
	return !f.Bounds().Empty()
}

// Source supplies frames on demand.
//
// Open acquires the underlying device or subscription. A failure there is
// fatal: callers must not enter the frame loop. Next may fail transiently;
// it returns ErrNoFrame when nothing is available yet. Both cases mean
// "skip this iteration". Close releases the subscription and is safe to call
// more than once.
type Source interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// Package display renders each processed frame for humans: a local OpenCV
// window, the web dashboard, or both. Rendering never influences the
// session state; the only signal flowing back is the quit request.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/teslashibe/go-emotive/pkg/frame"
	"github.com/teslashibe/go-emotive/pkg/pipeline"
)

// DefaultQuitKey stops the loop when pressed in a window.
const DefaultQuitKey = 'q'

// Sink consumes annotated frames.
type Sink interface {
	// Render draws o. quit reports that the user asked to stop.
	Render(ctx context.Context, o Overlay) (quit bool, err error)

	// Close releases windows or connections
	Close() error
}

// Box is one person detection as drawn.
type Box struct {
	Rect       image.Rectangle
	Confidence float64

	// Emotion is empty when inference was skipped or failed.
	Emotion string
	Score   float64

	// Failed marks a region whose emotion inference errored.
	Failed bool
}

// Reaction is a report dispatched on this frame.
type Reaction struct {
	Label  string
	Score  float64
	Phrase string
	Time   time.Time
}

// Overlay is everything a sink needs for one frame.
type Overlay struct {
	Frame    *frame.Frame
	Boxes    []Box
	Reaction *Reaction

	RunID       string
	Phase       string
	LastEmotion string
	LastReport  time.Time
	Latency     time.Duration
}

// FromOutcome builds the boxes for f from a pipeline outcome. When only
// detection ran, boxes carry no emotion and are not marked failed.
func FromOutcome(f *frame.Frame, out pipeline.Outcome) Overlay {
	o := Overlay{Frame: f, Latency: out.Latency}
	if len(out.Results) > 0 {
		o.Boxes = make([]Box, 0, len(out.Results))
		for _, r := range out.Results {
			b := Box{Rect: r.Detection.Box, Confidence: r.Detection.Confidence}
			if r.OK() {
				b.Emotion = r.Emotion.Dominant
				b.Score = r.Emotion.Score
			} else {
				b.Failed = true
			}
			o.Boxes = append(o.Boxes, b)
		}
		return o
	}
	for _, d := range out.Detections {
		o.Boxes = append(o.Boxes, Box{Rect: d.Box, Confidence: d.Confidence})
	}
	return o
}

// PersonLabel is the caption drawn above a person box.
func PersonLabel(b Box) string {
	return fmt.Sprintf("Person (%.2f)", b.Confidence)
}

// EmotionLabel is the emotion caption for b, or "" when there is none.
func EmotionLabel(b Box) string {
	switch {
	case b.Failed:
		return "Emotion: Error"
	case b.Emotion != "":
		return fmt.Sprintf("%s: %.1f%%", b.Emotion, b.Score)
	}
	return ""
}

// Multi fans out to several sinks. Every sink renders even if an earlier
// one fails; quit is true if any sink asked to stop.
type Multi []Sink

// Render implements Sink.
func (m Multi) Render(ctx context.Context, o Overlay) (bool, error) {
	var (
		quit bool
		errs []error
	)
	for _, s := range m {
		q, err := s.Render(ctx, o)
		quit = quit || q
		if err != nil {
			errs = append(errs, err)
		}
	}
	return quit, errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every frame.
type Nop struct{}

// Render implements Sink.
func (Nop) Render(context.Context, Overlay) (bool, error) { return false, nil }

// Close implements Sink.
func (Nop) Close() error { return nil }

var (
	_ Sink = Multi(nil)
	_ Sink = Nop{}
)

package pipeline_test

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/teslashibe/go-emotive/pkg/detection"
	"github.com/teslashibe/go-emotive/pkg/emotion"
	"github.com/teslashibe/go-emotive/pkg/frame"
	"github.com/teslashibe/go-emotive/pkg/pipeline"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testFrame() *frame.Frame {
	return frame.New(image.NewRGBA(image.Rect(0, 0, 640, 480)), 1)
}

func person(box image.Rectangle, conf float64) detection.Detection {
	return detection.Detection{Box: box, Confidence: conf, ClassID: 0, ClassName: detection.ClassPerson}
}

func TestLowConfidenceNeverClassified(t *testing.T) {
	det := detection.NewMock(person(image.Rect(10, 10, 200, 300), 0.4))
	cls := emotion.NewMock(emotion.Happy, 90)
	p := pipeline.New(det, cls, pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())

	if out.PersonDetected {
		t.Error("0.4 confidence should not count as a person")
	}
	if len(out.Results) != 0 {
		t.Errorf("expected no results, got %d", len(out.Results))
	}
	if cls.CallCount("Analyze") != 0 {
		t.Error("classifier must not be called for filtered detections")
	}
}

func TestThresholdIsInclusive(t *testing.T) {
	det := detection.NewMock(person(image.Rect(0, 0, 100, 100), 0.5))
	p := pipeline.New(det, emotion.NewMock(emotion.Sad, 70), pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if !out.PersonDetected || len(out.Results) != 1 {
		t.Errorf("0.5 should survive the filter: %+v", out)
	}
}

func TestSmallRegionUpscaled(t *testing.T) {
	det := detection.NewMock(person(image.Rect(100, 100, 130, 140), 0.9))
	cls := emotion.NewMock(emotion.Happy, 80)
	p := pipeline.New(det, cls, pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Results))
	}
	if !out.Results[0].Upscaled {
		t.Error("30x40 region should be upscaled")
	}

	calls := cls.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 classifier call, got %d", len(calls))
	}
	if calls[0].Size != image.Pt(100, 100) {
		t.Errorf("classifier saw %v, want exactly 100x100", calls[0].Size)
	}
}

func TestUpscaleEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		box      image.Rectangle
		upscaled bool
		size     image.Point
	}{
		{"wide but short", image.Rect(0, 0, 300, 49), true, image.Pt(100, 100)},
		{"exactly 50", image.Rect(0, 0, 50, 50), false, image.Pt(50, 50)},
		{"large", image.Rect(0, 0, 200, 300), false, image.Pt(200, 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := emotion.NewMock(emotion.Neutral, 90)
			p := pipeline.New(detection.NewMock(person(tt.box, 0.9)), cls, pipeline.WithLogger(quiet))

			out := p.Process(context.Background(), testFrame())
			if out.Results[0].Upscaled != tt.upscaled {
				t.Errorf("upscaled = %v", out.Results[0].Upscaled)
			}
			if got := cls.Calls()[0].Size; got != tt.size {
				t.Errorf("classifier saw %v, want %v", got, tt.size)
			}
		})
	}
}

func TestOneClassifierFailureIsolated(t *testing.T) {
	det := detection.NewMock(
		person(image.Rect(0, 0, 200, 200), 0.9),
		person(image.Rect(300, 0, 500, 200), 0.8),
	)
	n := 0
	cls := &emotion.Mock{AnalyzeFunc: func(ctx context.Context, region image.Image) (*emotion.Result, error) {
		n++
		if n == 1 {
			return nil, errors.New("model crashed")
		}
		return emotion.Fixed(emotion.Sad, 72), nil
	}}
	p := pipeline.New(det, cls, pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if !out.PersonDetected {
		t.Error("expected person detected")
	}
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if out.Results[0].OK() || out.Results[0].Err == nil {
		t.Error("first result should carry the error")
	}
	if !out.Results[1].OK() || out.Results[1].Emotion.Dominant != emotion.Sad {
		t.Errorf("second result should be sad, got %+v", out.Results[1])
	}
}

func TestAllInferenceFailedStillPresent(t *testing.T) {
	det := detection.NewMock(person(image.Rect(0, 0, 200, 200), 0.9))
	p := pipeline.New(det, emotion.WithError(errors.New("down")), pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if !out.PersonDetected {
		t.Error("presence must be reported even when inference fails")
	}
}

func TestDetectorErrorIsZeroDetections(t *testing.T) {
	boom := errors.New("onnx runtime error")
	cls := emotion.NewMock(emotion.Happy, 90)
	p := pipeline.New(detection.WithError(boom), cls, pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if out.PersonDetected || len(out.Results) != 0 {
		t.Errorf("expected zero detections, got %+v", out)
	}
	if !errors.Is(out.DetectErr, boom) {
		t.Errorf("DetectErr = %v", out.DetectErr)
	}
	if cls.CallCount("Analyze") != 0 {
		t.Error("classifier should not run")
	}
}

func TestEmptyRegionSkipped(t *testing.T) {
	det := detection.NewMock(
		person(image.Rect(700, 500, 800, 600), 0.9), // outside the 640x480 frame
		person(image.Rect(0, 0, 100, 100), 0.9),
	)
	cls := emotion.NewMock(emotion.Fear, 65)
	p := pipeline.New(det, cls, pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), testFrame())
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if !errors.Is(out.Results[0].Err, pipeline.ErrEmptyRegion) {
		t.Errorf("expected ErrEmptyRegion, got %v", out.Results[0].Err)
	}
	if !out.Results[1].OK() {
		t.Error("second region should be classified")
	}
	if cls.CallCount("Analyze") != 1 {
		t.Errorf("classifier should run once, ran %d", cls.CallCount("Analyze"))
	}
}

func TestDetectOnly(t *testing.T) {
	cls := emotion.NewMock(emotion.Happy, 90)
	det := detection.NewMock(person(image.Rect(0, 0, 100, 100), 0.9))
	p := pipeline.New(det, cls, pipeline.WithLogger(quiet))

	out := p.Detect(context.Background(), testFrame())
	if !out.PersonDetected || len(out.Detections) != 1 {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(out.Results) != 0 || cls.CallCount("Analyze") != 0 {
		t.Error("Detect must not classify")
	}
	if len(det.Calls()[0].Classes) != 1 || det.Calls()[0].Classes[0] != detection.ClassPerson {
		t.Errorf("detector should be restricted to person, got %v", det.Calls()[0].Classes)
	}
}

func TestInvalidFrame(t *testing.T) {
	det := detection.NewMock()
	p := pipeline.New(det, emotion.NewMock(emotion.Happy, 90), pipeline.WithLogger(quiet))

	out := p.Process(context.Background(), &frame.Frame{})
	if out.PersonDetected {
		t.Error("empty frame has no people")
	}
	if det.CallCount("Detect") != 0 {
		t.Error("detector should not run on an empty frame")
	}
}

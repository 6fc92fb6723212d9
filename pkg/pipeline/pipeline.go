// Package pipeline runs one frame through person detection, region
// extraction and emotion inference.
//
// Every stage degrades instead of failing: a detector error counts as no
// people, an empty crop or classifier error leaves that one region without
// an emotion. Process never returns an error.
package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/teslashibe/go-emotive/pkg/detection"
	"github.com/teslashibe/go-emotive/pkg/emotion"
	"github.com/teslashibe/go-emotive/pkg/frame"
)

// ErrEmptyRegion marks a detection whose crop had no pixels.
var ErrEmptyRegion = errors.New("pipeline: empty region")

// Result is one surviving detection and its emotion, if any.
type Result struct {
	Detection detection.Detection

	// Emotion is nil when Err is set.
	Emotion *emotion.Result

	// Err is why Emotion is absent.
	Err error

	// Upscaled reports whether the region was resized before inference.
	Upscaled bool
}

// OK reports whether an emotion is present.
func (r Result) OK() bool {
	return r.Err == nil && r.Emotion != nil
}

// Outcome is everything the session needs from one frame.
type Outcome struct {
	// PersonDetected is true when at least one person survived the
	// confidence filter, even if every emotion inference failed.
	PersonDetected bool

	// Detections are the surviving person detections, in detector order.
	Detections []detection.Detection

	// Results has one entry per detection, same order. Empty when only
	// detection was run.
	Results []Result

	// DetectErr is the detector failure that was treated as zero detections.
	DetectErr error

	Latency time.Duration
}

// Pipeline orchestrates a detector and an emotion classifier.
type Pipeline struct {
	detector   detection.Detector
	classifier emotion.Classifier
	config     *Config
	logger     *slog.Logger
}

// New creates a pipeline.
func New(det detection.Detector, cls emotion.Classifier, opts ...Option) *Pipeline {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		detector:   det,
		classifier: cls,
		config:     cfg,
		logger:     cfg.Logger.With("component", "pipeline"),
	}
}

// Config returns the active configuration.
func (p *Pipeline) Config() Config {
	return *p.config
}

// Process detects people in f and classifies each region.
func (p *Pipeline) Process(ctx context.Context, f *frame.Frame) Outcome {
	start := time.Now()
	out := p.Detect(ctx, f)
	out.Results = p.Analyze(ctx, f, out.Detections)
	out.Latency = time.Since(start)
	return out
}

// Detect runs detection and the confidence filter only.
func (p *Pipeline) Detect(ctx context.Context, f *frame.Frame) Outcome {
	start := time.Now()
	if !f.Valid() {
		return Outcome{}
	}

	dets, err := p.detector.Detect(ctx, f.Image, p.config.PersonClass)
	if err != nil {
		p.logger.Warn("detection failed, treating as no people", "stage", "detect", "seq", f.Seq, "error", err)
		return Outcome{DetectErr: err, Latency: time.Since(start)}
	}

	people := detection.FilterConfidence(detection.FilterClass(dets, p.config.PersonClass), p.config.DetectionThreshold)
	if dropped := len(dets) - len(people); dropped > 0 {
		p.logger.Debug("filtered detections", "seq", f.Seq, "kept", len(people), "dropped", dropped)
	}

	return Outcome{
		PersonDetected: len(people) > 0,
		Detections:     people,
		Latency:        time.Since(start),
	}
}

// Analyze classifies each detection's region of f. One region's failure
// does not affect the others.
func (p *Pipeline) Analyze(ctx context.Context, f *frame.Frame, dets []detection.Detection) []Result {
	if len(dets) == 0 {
		return nil
	}
	results := make([]Result, 0, len(dets))
	for i, det := range dets {
		results = append(results, p.analyzeOne(ctx, f, i, det))
	}
	return results
}

func (p *Pipeline) analyzeOne(ctx context.Context, f *frame.Frame, i int, det detection.Detection) Result {
	res := Result{Detection: det}

	region := p.extract(f.Image, det.Box)
	if region == nil {
		res.Err = ErrEmptyRegion
		p.logger.Debug("empty region", "seq", f.Seq, "index", i, "box", det.Box)
		return res
	}
	if frame.NeedsUpscale(region, p.config.MinRegionEdge) {
		region = frame.Upscale(region, p.config.UpscaleSize)
		res.Upscaled = true
	}

	em, err := p.classifier.Analyze(ctx, region)
	if err != nil {
		res.Err = err
		p.logger.Warn("emotion inference failed", "stage", "classify", "seq", f.Seq, "index", i, "error", err)
		return res
	}
	if em == nil {
		res.Err = emotion.ErrEmptyScores
		return res
	}
	res.Emotion = em
	return res
}

// extract returns an untyped nil for an empty crop.
func (p *Pipeline) extract(img image.Image, box image.Rectangle) image.Image {
	if c := frame.Crop(img, box); c != nil {
		return c
	}
	return nil
}

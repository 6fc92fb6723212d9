package pipeline

import (
	"image"
	"log/slog"
)

// Defaults for the per-frame policy.
const (
	DefaultDetectionThreshold = 0.5
	DefaultMinRegionEdge      = 50
)

// DefaultUpscaleSize is the canvas small regions are resized to.
var DefaultUpscaleSize = image.Pt(100, 100)

// Config holds pipeline configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// DetectionThreshold drops detections below this confidence before
	// any emotion inference. Independent of the emotion threshold.
	DetectionThreshold float64

	// MinRegionEdge triggers upscaling when either crop edge is shorter.
	MinRegionEdge int

	// UpscaleSize is the exact size small crops are resized to.
	UpscaleSize image.Point

	// PersonClass is the detector class treated as a person.
	PersonClass string

	Logger *slog.Logger
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Config)

// WithDetectionThreshold sets the minimum detection confidence.
func WithDetectionThreshold(t float64) Option {
	return func(c *Config) { c.DetectionThreshold = t }
}

// WithUpscale sets the small-region policy.
func WithUpscale(minEdge int, size image.Point) Option {
	return func(c *Config) {
		c.MinRegionEdge = minEdge
		c.UpscaleSize = size
	}
}

// WithPersonClass overrides the person class name.
func WithPersonClass(name string) Option {
	return func(c *Config) { c.PersonClass = name }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the standard policy.
func DefaultConfig() *Config {
	return &Config{
		DetectionThreshold: DefaultDetectionThreshold,
		MinRegionEdge:      DefaultMinRegionEdge,
		UpscaleSize:        DefaultUpscaleSize,
		PersonClass:        "person",
		Logger:             slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

package emotion

import (
	"log/slog"
	"time"
)

// Config holds classifier configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Connection
	BaseURL string
	APIKey  string

	// Model is the backend model name (DeepFace emotion model or vision LLM).
	Model string

	// DetectorBackend is DeepFace's face detector ("opencv", "retinaface", "skip", ...).
	DetectorBackend string

	// EnforceDetection makes the backend reject regions with no visible
	// face. Off by default: regions are already person crops.
	EnforceDetection bool

	// JPEGQuality used when shipping regions to a remote backend.
	JPEGQuality int

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring classifiers.
type Option func(*Config)

// WithBaseURL sets the service base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the backend model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithDetectorBackend sets DeepFace's face detector backend.
func WithDetectorBackend(name string) Option {
	return func(c *Config) { c.DetectorBackend = name }
}

// WithEnforceDetection toggles face-localization enforcement.
func WithEnforceDetection(enforce bool) Option {
	return func(c *Config) { c.EnforceDetection = enforce }
}

// WithJPEGQuality sets the JPEG quality for uploaded regions.
func WithJPEGQuality(q int) Option {
	return func(c *Config) { c.JPEGQuality = q }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults tuned for a per-frame loop: short timeout,
// one retry.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "http://localhost:5005",
		DetectorBackend:  "opencv",
		EnforceDetection: false,
		JPEGQuality:      90,
		Timeout:          5 * time.Second,
		MaxRetries:       1,
		RetryDelay:       50 * time.Millisecond,
		Logger:           slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

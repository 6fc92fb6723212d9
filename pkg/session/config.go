package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-emotive/pkg/display"
)

// Defaults for the debounce policy.
const (
	DefaultEmotionThreshold = 60.0
	DefaultCooldown         = 3 * time.Second
	DefaultRetryDelay       = 10 * time.Millisecond
	DefaultTraceEvery       = 30
)

// ResetPolicy says what a frame without people clears.
type ResetPolicy int

const (
	// ResetLabel forgets the last emotion but keeps the cooldown running.
	ResetLabel ResetPolicy = iota
	// ResetLabelAndTimer also lets the next report ignore the cooldown.
	ResetLabelAndTimer
)

// String returns the flag spelling of the policy.
func (p ResetPolicy) String() string {
	switch p {
	case ResetLabel:
		return "label"
	case ResetLabelAndTimer:
		return "label+timer"
	default:
		return fmt.Sprintf("ResetPolicy(%d)", int(p))
	}
}

// ParseResetPolicy accepts "label" or "label+timer".
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch s {
	case "", "label":
		return ResetLabel, nil
	case "label+timer", "timer":
		return ResetLabelAndTimer, nil
	}
	return ResetLabel, fmt.Errorf("session: unknown reset policy %q", s)
}

// Config holds session configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// EmotionThreshold is the minimum dominant score (0-100) for a report.
	EmotionThreshold float64

	// Cooldown must strictly elapse between two reports.
	Cooldown time.Duration

	ResetPolicy ResetPolicy

	// GateInference skips emotion inference while the cooldown is active.
	// Detection still runs so presence resets keep working.
	GateInference bool

	// RetryDelay is the pause after the source yields nothing.
	RetryDelay time.Duration

	// TraceEvery logs the frame resolution every N frames at debug level.
	TraceEvery uint64

	// Display receives every processed frame. Defaults to display.Nop.
	Display display.Sink

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger
}

// Option is a functional option for configuring a Machine.
type Option func(*Config)

// WithEmotionThreshold sets the minimum dominant score.
func WithEmotionThreshold(t float64) Option {
	return func(c *Config) { c.EmotionThreshold = t }
}

// WithCooldown sets the minimum interval between reports.
func WithCooldown(d time.Duration) Option {
	return func(c *Config) { c.Cooldown = d }
}

// WithResetPolicy sets what a presence loss clears.
func WithResetPolicy(p ResetPolicy) Option {
	return func(c *Config) { c.ResetPolicy = p }
}

// WithGateInference enables skipping inference during the cooldown.
func WithGateInference(enabled bool) Option {
	return func(c *Config) { c.GateInference = enabled }
}

// WithRetryDelay sets the pause after an empty or failed read.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.RetryDelay = d }
}

// WithDisplay sets the display sink.
func WithDisplay(s display.Sink) Option {
	return func(c *Config) { c.Display = s }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the standard policy.
func DefaultConfig() *Config {
	return &Config{
		EmotionThreshold: DefaultEmotionThreshold,
		Cooldown:         DefaultCooldown,
		ResetPolicy:      ResetLabel,
		RetryDelay:       DefaultRetryDelay,
		TraceEvery:       DefaultTraceEvery,
		Display:          display.Nop{},
		Clock:            time.Now,
		Logger:           slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.EmotionThreshold < 0 || c.EmotionThreshold > 100 {
		return fmt.Errorf("session: emotion threshold %.1f outside 0-100", c.EmotionThreshold)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("session: negative cooldown %v", c.Cooldown)
	}
	if c.ResetPolicy != ResetLabel && c.ResetPolicy != ResetLabelAndTimer {
		return fmt.Errorf("session: invalid reset policy %d", c.ResetPolicy)
	}
	return nil
}

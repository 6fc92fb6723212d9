// Package camera captures frames from a local webcam, video file or stream
// URL through OpenCV.
package camera

import (
	"fmt"
	"strconv"
)

// Config holds capture settings.
type Config struct {
	// DeviceID is a camera index ("0"), a file path or a stream URL.
	DeviceID string `json:"device_id"`

	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS, 0 leaves the device default
}

// Capture limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the VGA configuration on the first camera. 640x480
// is the resolution the robot head camera is subscribed at.
func DefaultConfig() Config {
	return Config{
		DeviceID:  "0",
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string
	if c.DeviceID == "" {
		errs = append(errs, "device_id is required")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errs = append(errs, fmt.Sprintf("framerate must be between 0 and %d", MaxFramerate))
	}
	return errs
}

// Device returns the value OpenCV expects: an int for camera indexes,
// the string otherwise.
func (c *Config) Device() interface{} {
	if n, err := strconv.Atoi(c.DeviceID); err == nil {
		return n
	}
	return c.DeviceID
}

package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-emotive/pkg/frame"
)

// Capture implements frame.Source over gocv.VideoCapture.
type Capture struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	rgb    gocv.Mat
	seq    uint64
	opened bool
	closed bool
}

// NewCapture creates a capture. Nothing is opened until Open.
func NewCapture(cfg Config, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		config: cfg,
		logger: logger.With("component", "camera.capture", "device", cfg.DeviceID),
	}
}

// Open acquires the device and requests the configured resolution.
func (c *Capture) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil
	}
	if errs := c.config.Validate(); len(errs) > 0 {
		return c.openError(fmt.Errorf("invalid config: %s", strings.Join(errs, "; ")))
	}
	if err := ctx.Err(); err != nil {
		return c.openError(err)
	}

	vc, err := gocv.OpenVideoCapture(c.config.Device())
	if err != nil {
		return c.openError(err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return c.openError(fmt.Errorf("device %q did not open", c.config.DeviceID))
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	if c.config.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(c.config.Framerate))
	}

	c.vc = vc
	c.mat = gocv.NewMat()
	c.rgb = gocv.NewMat()
	c.opened = true
	c.logger.Info("camera opened",
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)))
	return nil
}

func (c *Capture) openError(err error) error {
	return &frame.OpenError{Source: "camera " + c.config.DeviceID, Err: err}
}

// Next reads one frame. An empty read returns frame.ErrNoFrame.
func (c *Capture) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, frame.ErrClosed
	case !c.opened:
		return nil, frame.ErrNotOpen
	}

	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, frame.ErrNoFrame
	}
	img, err := c.image()
	if err != nil {
		return nil, fmt.Errorf("camera: convert frame: %w", err)
	}
	c.seq++
	return frame.New(img, c.seq), nil
}

// image converts the last read into an RGBA image. Colour frames go through
// the packed RGB path; anything else falls back to gocv's converter.
func (c *Capture) image() (image.Image, error) {
	if c.mat.Channels() != 3 {
		return c.mat.ToImage()
	}
	gocv.CvtColor(c.mat, &c.rgb, gocv.ColorBGRToRGB)
	return frame.FromRGB(c.rgb.Cols(), c.rgb.Rows(), c.rgb.ToBytes())
}

// Close releases the device. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.opened {
		return nil
	}
	c.mat.Close()
	c.rgb.Close()
	err := c.vc.Close()
	c.logger.Info("camera released", "frames", c.seq)
	return err
}

var _ frame.Source = (*Capture)(nil)

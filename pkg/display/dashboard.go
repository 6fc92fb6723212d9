package display

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-emotive/pkg/web"
)

// Publisher is the part of web.Server the dashboard sink writes to.
type Publisher interface {
	UpdateStatus(update func(*web.Status))
	AddReport(emotion string, score float64, phrase string, at time.Time) web.Report
	AddLog(logType, message string)
	SendCameraFrame(jpegData []byte)
	CameraClients() int
}

// DashboardConfig holds dashboard sink configuration.
type DashboardConfig struct {
	// Source names the frame source on the status panel.
	Source string

	// FrameEvery sends one camera frame out of every N rendered.
	FrameEvery int

	// JPEGQuality for camera frames (1-100).
	JPEGQuality int

	Logger *slog.Logger
}

// DefaultDashboardConfig returns defaults sized for a LAN dashboard.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Source:      "camera",
		FrameEvery:  2,
		JPEGQuality: 70,
		Logger:      slog.Default(),
	}
}

// Dashboard publishes status, reports and annotated frames to the web UI.
type Dashboard struct {
	pub    Publisher
	config DashboardConfig
	logger *slog.Logger

	rendered  atomic.Uint64
	reactions atomic.Int64
}

// NewDashboard creates a dashboard sink.
func NewDashboard(pub Publisher, cfg DashboardConfig) *Dashboard {
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = 1
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 70
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	pub.UpdateStatus(func(s *web.Status) {
		s.Source = cfg.Source
		s.SourceConnected = true
	})
	return &Dashboard{
		pub:    pub,
		config: cfg,
		logger: cfg.Logger.With("component", "display.dashboard"),
	}
}

// Render implements Sink. The dashboard never asks to quit.
func (d *Dashboard) Render(ctx context.Context, o Overlay) (bool, error) {
	n := d.rendered.Add(1)

	if r := o.Reaction; r != nil {
		d.reactions.Add(1)
		d.pub.AddReport(r.Label, r.Score, r.Phrase, r.Time)
	}

	d.pub.UpdateStatus(func(s *web.Status) {
		s.RunID = o.RunID
		s.Phase = o.Phase
		s.LastEmotion = o.LastEmotion
		s.LastReport = o.LastReport
		s.PersonDetected = len(o.Boxes) > 0
		s.People = len(o.Boxes)
		s.Frames = n
		s.LatencyMs = o.Latency.Milliseconds()
		s.Reactions = d.reactions.Load()
	})

	if !o.Frame.Valid() || d.pub.CameraClients() == 0 || n%uint64(d.config.FrameEvery) != 0 {
		return false, nil
	}
	data, err := d.encode(o)
	if err != nil {
		return false, fmt.Errorf("dashboard: encode frame: %w", err)
	}
	d.pub.SendCameraFrame(data)
	return false, nil
}

func (d *Dashboard) encode(o Overlay) ([]byte, error) {
	mat, err := annotate(o)
	defer mat.Close()
	if err != nil {
		return nil, err
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), d.config.JPEGQuality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close marks the source disconnected on the status panel.
func (d *Dashboard) Close() error {
	d.pub.UpdateStatus(func(s *web.Status) { s.SourceConnected = false })
	d.pub.AddLog("info", "session stopped")
	return nil
}

var _ Sink = (*Dashboard)(nil)

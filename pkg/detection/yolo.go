package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"github.com/teslashibe/go-emotive/pkg/debug"
	"gocv.io/x/gocv"
)

// Output layouts understood by YOLODetector.
const (
	FormatV8  = "v8"  // [1, 84, 8400], needs NMS
	FormatV10 = "v10" // [1, 300, 6], NMS-free
)

// YOLODetector uses a YOLO ONNX model through OpenCV DNN for general
// object detection.
type YOLODetector struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
	logger    *slog.Logger
}

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath string
	Format    string // FormatV8 or FormatV10

	// ConfidenceThresh is the model-level floor. Keep it below any
	// application threshold so callers see the real confidence values.
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int

	Logger *slog.Logger
}

// DefaultYOLOConfig returns production defaults for YOLOv10n
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov10n.onnx",
		Format:           FormatV10,
		ConfidenceThresh: 0.25,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		Logger:           slog.Default(),
	}
}

// Validate checks the configuration before the model is loaded.
func (c YOLOConfig) Validate() error {
	if c.ModelPath == "" {
		return ErrNoModel
	}
	if c.Format != FormatV8 && c.Format != FormatV10 {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return fmt.Errorf("detection: invalid input size %dx%d", c.InputWidth, c.InputHeight)
	}
	return nil
}

// NewYOLO creates a new YOLO object detector
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
		logger:    logger.With("component", "detection.yolo", "format", cfg.Format),
	}, nil
}

// Detect finds objects in img.
func (d *YOLODetector) Detect(ctx context.Context, img image.Image, classes ...string) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("detection: convert image: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	imgW := float32(mat.Cols())
	imgH := float32(mat.Rows())

	blob := gocv.BlobFromImage(mat, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("detection: read output: %w", err)
	}

	sx := imgW / float32(d.config.InputWidth)
	sy := imgH / float32(d.config.InputHeight)

	var dets []Detection
	dims := output.Size()
	switch d.config.Format {
	case FormatV10:
		if len(dims) != 3 || dims[2] != 6 {
			return nil, fmt.Errorf("%w: got shape %v", ErrUnexpectedOutput, dims)
		}
		for _, c := range decodeV10(data, dims[1], d.config.ConfidenceThresh, sx, sy) {
			dets = append(dets, c.detection())
		}
	default:
		if len(dims) != 3 {
			return nil, fmt.Errorf("%w: got shape %v", ErrUnexpectedOutput, dims)
		}
		dets = d.nms(decodeV8(data, dims[1], dims[2], d.config.ConfidenceThresh, sx, sy))
	}

	dets = FilterClass(dets, classes...)

	if len(dets) > 0 {
		debug.Log("🔍 YOLO found %d object(s)\n", len(dets))
	}

	return dets, nil
}

func (d *YOLODetector) nms(cands []candidate) []Detection {
	if len(cands) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
	}

	indices := gocv.NMSBoxes(boxes, scores, d.config.ConfidenceThresh, d.config.NMSThresh)

	dets := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		dets = append(dets, cands[idx].detection())
	}
	return dets
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Verify YOLODetector implements Detector at compile time.
var _ Detector = (*YOLODetector)(nil)

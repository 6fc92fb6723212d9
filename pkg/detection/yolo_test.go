package detection

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestNewYOLOInvalidPath(t *testing.T) {
	cfg := DefaultYOLOConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := NewYOLO(cfg)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestYOLODetect_SolidImage(t *testing.T) {
	modelPath := findModelPath("yolov10n.onnx")
	if modelPath == "" {
		t.Skip("YOLO model not found, skipping test")
	}

	cfg := DefaultYOLOConfig()
	cfg.ModelPath = modelPath

	detector, err := NewYOLO(cfg)
	if err != nil {
		t.Fatalf("NewYOLO failed: %v", err)
	}
	defer detector.Close()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}

	dets, err := detector.Detect(context.Background(), img, ClassPerson)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for _, d := range dets {
		if d.Confidence >= 0.5 {
			t.Errorf("unexpected confident detection in solid image: %+v", d)
		}
	}
}

func TestYOLODetect_EmptyImage(t *testing.T) {
	modelPath := findModelPath("yolov10n.onnx")
	if modelPath == "" {
		t.Skip("YOLO model not found, skipping test")
	}

	cfg := DefaultYOLOConfig()
	cfg.ModelPath = modelPath

	detector, err := NewYOLO(cfg)
	if err != nil {
		t.Fatalf("NewYOLO failed: %v", err)
	}
	defer detector.Close()

	if _, err := detector.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

// findModelPath walks up from the working directory looking for models/<name>.
func findModelPath(name string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		p := filepath.Join(dir, "models", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

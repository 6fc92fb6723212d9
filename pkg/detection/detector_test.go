package detection

import (
	"errors"
	"image"
	"testing"
)

func TestDetection_Area(t *testing.T) {
	tests := []struct {
		name   string
		det    Detection
		expect int
	}{
		{name: "square", det: Detection{Box: image.Rect(0, 0, 100, 100)}, expect: 10000},
		{name: "offset box", det: Detection{Box: image.Rect(10, 20, 40, 30)}, expect: 300},
		{name: "degenerate", det: Detection{Box: image.Rect(5, 5, 5, 50)}, expect: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.det.Area(); got != tc.expect {
				t.Errorf("Area: got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestFilterClass(t *testing.T) {
	dets := []Detection{
		{ClassName: "person", Confidence: 0.9},
		{ClassName: "dog", Confidence: 0.8},
		{ClassName: "person", Confidence: 0.4},
	}

	people := FilterClass(dets, ClassPerson)
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %d", len(people))
	}
	if people[0].Confidence != 0.9 || people[1].Confidence != 0.4 {
		t.Error("FilterClass should preserve order")
	}

	if all := FilterClass(dets); len(all) != 3 {
		t.Errorf("empty filter should keep all, got %d", len(all))
	}
}

func TestFilterConfidence(t *testing.T) {
	dets := []Detection{
		{Confidence: 0.4},
		{Confidence: 0.5},
		{Confidence: 0.51},
		{Confidence: 0.49999},
	}

	got := FilterConfidence(dets, 0.5)
	if len(got) != 2 {
		t.Fatalf("expected 2 detections at >= 0.5, got %d", len(got))
	}
	if got[0].Confidence != 0.5 {
		t.Errorf("threshold should be inclusive, first kept %v", got[0].Confidence)
	}
}

func TestClassName(t *testing.T) {
	if ClassName(0) != "person" {
		t.Errorf("class 0: got %q", ClassName(0))
	}
	if ClassName(16) != "dog" {
		t.Errorf("class 16: got %q", ClassName(16))
	}
	if ClassName(-1) != "unknown" || ClassName(80) != "unknown" {
		t.Error("out of range IDs should be unknown")
	}
	if !IsPerson("person") || IsPerson("dog") {
		t.Error("IsPerson mismatch")
	}
}

func TestDecodeV10(t *testing.T) {
	data := []float32{
		10, 20, 110, 220, 0.9, 0,
		0, 0, 5, 5, 0.1, 0,
		50, 50, 150, 150, 0.6, 16,
	}

	cands := decodeV10(data, 3, 0.25, 2, 1)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	d := cands[0].detection()
	if d.Box != image.Rect(20, 20, 220, 220) {
		t.Errorf("box: got %v", d.Box)
	}
	if d.ClassName != "person" {
		t.Errorf("class: got %q", d.ClassName)
	}
	if cands[1].detection().ClassName != "dog" {
		t.Errorf("class: got %q", cands[1].detection().ClassName)
	}
}

func TestDecodeV8(t *testing.T) {
	// Two anchors, two classes: channels = 4 + 2, laid out channel-major.
	n := 2
	data := []float32{
		100, 300, // cx
		100, 300, // cy
		40, 20, // w
		60, 20, // h
		0.8, 0.1, // class 0 score
		0.1, 0.2, // class 1 score
	}

	cands := decodeV8(data, 6, n, 0.5, 1, 1)
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate above threshold, got %d", len(cands))
	}
	if cands[0].box != image.Rect(80, 70, 120, 130) {
		t.Errorf("box: got %v", cands[0].box)
	}
	if cands[0].classID != 0 {
		t.Errorf("classID: got %d", cands[0].classID)
	}
}

func TestYOLOConfigValidate(t *testing.T) {
	cfg := DefaultYOLOConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.ConfidenceThresh >= 0.5 {
		t.Errorf("model floor should sit below the 0.5 application threshold, got %v", cfg.ConfidenceThresh)
	}

	bad := cfg
	bad.Format = "v5"
	if err := bad.Validate(); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}

	bad = cfg
	bad.ModelPath = ""
	if err := bad.Validate(); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

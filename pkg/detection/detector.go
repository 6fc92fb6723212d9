// Package detection provides object detection over camera frames.
//
// Detections are reported in pixel coordinates of the input image, with the
// model's confidence and COCO class. Callers that only care about people pass
// "person" as the class filter.
package detection

import (
	"context"
	"image"
)

// ClassPerson is the COCO class name for people.
const ClassPerson = "person"

// Detection represents one detected object.
type Detection struct {
	Box        image.Rectangle // Bounding box in image pixels (x1,y1)-(x2,y2)
	Confidence float64         // Detection confidence (0-1)
	ClassID    int             // COCO class ID
	ClassName  string          // Human-readable class name
}

// Area returns the area of the bounding box in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Detector is the interface for object detection backends.
type Detector interface {
	// Detect finds objects in img. When classes is non-empty, only those
	// class names are returned.
	Detect(ctx context.Context, img image.Image, classes ...string) ([]Detection, error)

	// Close releases resources
	Close() error
}

// FilterClass keeps detections whose class is in classes.
// An empty class list keeps everything.
func FilterClass(dets []Detection, classes ...string) []Detection {
	if len(classes) == 0 {
		return dets
	}
	want := make(map[string]bool, len(classes))
	for _, c := range classes {
		want[c] = true
	}
	var out []Detection
	for _, d := range dets {
		if want[d.ClassName] {
			out = append(out, d)
		}
	}
	return out
}

// FilterConfidence keeps detections with Confidence >= min, preserving order.
func FilterConfidence(dets []Detection, min float64) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}

// IsPerson returns true if the class is a person
func IsPerson(className string) bool {
	return className == ClassPerson
}

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ClassName returns the COCO name for id, or "unknown".
func ClassName(id int) string {
	if id < 0 || id >= len(COCOClasses) {
		return "unknown"
	}
	return COCOClasses[id]
}

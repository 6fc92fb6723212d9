// Package emotion provides facial emotion classification over image regions.
//
// A Classifier takes a cropped person region and returns the score
// distribution over a fixed label set plus the dominant label. Scores are
// always on a 0-100 scale regardless of backend.
//
// Backends:
//   - DeepFace: an HTTP DeepFace service (POST /analyze)
//   - OpenAI: a vision model prompted for a structured score distribution
//   - Chain: tries classifiers in order, first success wins
//
// Example usage:
//
//	cls, _ := emotion.NewDeepFace(
//	    emotion.WithBaseURL("http://localhost:5005"),
//	    emotion.WithEnforceDetection(false),
//	)
//	defer cls.Close()
//
//	res, err := cls.Analyze(ctx, region)
//	// res.Dominant == "happy", res.Score == 87.2
package emotion

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"
)

// Emotion labels reported by every backend.
const (
	Angry    = "angry"
	Disgust  = "disgust"
	Fear     = "fear"
	Happy    = "happy"
	Sad      = "sad"
	Surprise = "surprise"
	Neutral  = "neutral"
)

// Labels is the fixed label set in canonical order. Ties between equal
// scores resolve to the label that comes first here.
var Labels = []string{Angry, Disgust, Fear, Happy, Sad, Surprise, Neutral}

// Classifier analyzes one region and returns its emotion distribution.
type Classifier interface {
	// Analyze classifies region. It must not reject the region just because
	// it cannot localize a face unless enforce-detection was configured.
	Analyze(ctx context.Context, region image.Image) (*Result, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Result is one region's emotion analysis.
type Result struct {
	// Dominant is the highest scoring label, lowercase.
	Dominant string

	// Scores maps each label to its score on a 0-100 scale.
	Scores map[string]float64

	// Score is Scores[Dominant].
	Score float64
}

// String implements fmt.Stringer.
func (r *Result) String() string {
	if r == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s: %.1f%%", r.Dominant, r.Score)
}

// NewResult builds a Result from a raw score distribution. Labels are
// lowercased. A distribution that sums to at most 1 is treated as
// probabilities and scaled to 0-100.
func NewResult(scores map[string]float64) (*Result, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyScores
	}

	norm := make(map[string]float64, len(scores))
	sum := 0.0
	for label, s := range scores {
		if math.IsNaN(s) || s < 0 {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidScore, label, s)
		}
		norm[strings.ToLower(strings.TrimSpace(label))] = s
		sum += s
	}
	if sum > 0 && sum <= 1.0001 {
		for label := range norm {
			norm[label] *= 100
		}
	}

	dominant := ""
	best := -1.0
	for _, label := range orderedLabels(norm) {
		if s := norm[label]; s > best {
			best = s
			dominant = label
		}
	}

	return &Result{Dominant: dominant, Scores: norm, Score: best}, nil
}

// WithDominant returns a Result whose dominant label is forced to label,
// as reported by backends that name it explicitly. It falls back to the
// computed dominant label when label has no score.
func (r *Result) WithDominant(label string) *Result {
	label = strings.ToLower(strings.TrimSpace(label))
	s, ok := r.Scores[label]
	if !ok {
		return r
	}
	return &Result{Dominant: label, Scores: r.Scores, Score: s}
}

// orderedLabels returns canonical labels first, then unknown ones sorted.
func orderedLabels(scores map[string]float64) []string {
	out := make([]string, 0, len(scores))
	known := make(map[string]bool, len(Labels))
	for _, l := range Labels {
		known[l] = true
		if _, ok := scores[l]; ok {
			out = append(out, l)
		}
	}
	var extra []string
	for l := range scores {
		if !known[l] {
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// IsKnown reports whether label is one of Labels.
func IsKnown(label string) bool {
	label = strings.ToLower(label)
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

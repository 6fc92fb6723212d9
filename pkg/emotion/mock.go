package emotion

import (
	"context"
	"image"
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// AnalyzeFunc is called when Analyze is invoked.
	// If nil, returns a neutral result.
	AnalyzeFunc func(ctx context.Context, region image.Image) (*Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Size   image.Point // region size for Analyze
	Time   time.Time
}

// NewMock returns a classifier that always reports label at score.
func NewMock(label string, score float64) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, region image.Image) (*Result, error) {
			return Fixed(label, score), nil
		},
	}
}

// WithError returns a classifier that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		AnalyzeFunc: func(ctx context.Context, region image.Image) (*Result, error) {
			return nil, err
		},
	}
}

// Fixed builds a Result with label at score and the remainder spread over
// the other labels.
func Fixed(label string, score float64) *Result {
	scores := make(map[string]float64, len(Labels))
	rest := (100 - score) / float64(len(Labels)-1)
	for _, l := range Labels {
		scores[l] = rest
	}
	scores[label] = score
	return &Result{Dominant: label, Scores: scores, Score: score}
}

// Analyze calls AnalyzeFunc and records the call.
func (m *Mock) Analyze(ctx context.Context, region image.Image) (*Result, error) {
	var size image.Point
	if region != nil {
		size = region.Bounds().Size()
	}
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Analyze", Size: size, Time: time.Now()})
	m.mu.Unlock()

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, region)
	}
	return Fixed(Neutral, 100), nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Close", Time: time.Now()})
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Verify Mock implements Classifier at compile time.
var _ Classifier = (*Mock)(nil)

package detection

import (
	"context"
	"image"
	"sync"
	"time"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, Detect returns no detections.
	DetectFunc func(ctx context.Context, img image.Image, classes ...string) ([]Detection, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method  string
	Classes []string
	Time    time.Time
}

// NewMock returns a detector that always reports dets (filtered by class).
func NewMock(dets ...Detection) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, img image.Image, classes ...string) ([]Detection, error) {
			return FilterClass(dets, classes...), nil
		},
	}
}

// WithError returns a mock whose Detect always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, img image.Image, classes ...string) ([]Detection, error) {
			return nil, err
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, img image.Image, classes ...string) ([]Detection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: "Detect", Classes: classes, Time: time.Now()})
	m.mu.Unlock()
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, img, classes...)
	}
	return nil, nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: "Close", Time: time.Now()})
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

// Verify Mock implements Detector at compile time.
var _ Detector = (*Mock)(nil)

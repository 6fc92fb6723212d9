package frame

import (
	"context"
	"sync"
	"time"
)

// Mock implements Source for testing.
// Frames and errors are served in order; when the script is exhausted Next
// returns ErrNoFrame, or calls OnExhausted if set.
type Mock struct {
	// Frames is the scripted sequence. A nil entry yields Errs[i] or ErrNoFrame.
	Frames []*Frame

	// Errs optionally pairs an error with the frame at the same index.
	Errs []error

	// OpenFunc is called when Open is invoked. If nil, Open succeeds.
	OpenFunc func(ctx context.Context) error

	// OnExhausted is called once the script runs out.
	OnExhausted func()

	mu     sync.Mutex
	pos    int
	calls  []MockCall
	closed bool
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock source serving frames in order.
func NewMock(frames ...*Frame) *Mock {
	return &Mock{Frames: frames}
}

// Open calls OpenFunc and records the call.
func (m *Mock) Open(ctx context.Context) error {
	m.record("Open")
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx)
	}
	return nil
}

// Next returns the next scripted frame or error.
func (m *Mock) Next(ctx context.Context) (*Frame, error) {
	m.record("Next")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.pos >= len(m.Frames) {
		exhausted := m.OnExhausted
		m.mu.Unlock()
		if exhausted != nil {
			exhausted()
		}
		return nil, ErrNoFrame
	}
	i := m.pos
	m.pos++
	f := m.Frames[i]
	var err error
	if i < len(m.Errs) {
		err = m.Errs[i]
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNoFrame
	}
	return f, nil
}

// Close marks the source closed and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
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

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)

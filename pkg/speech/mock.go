package speech

import (
	"context"
	"sync"
	"time"
)

// Mock implements Speaker for testing.
type Mock struct {
	// SpeakFunc is called when Speak is invoked. If nil, Speak succeeds.
	SpeakFunc func(ctx context.Context, text string) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Speak invocation.
type MockCall struct {
	Text string
	Time time.Time
}

// NewMock returns a speaker that records phrases and always succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a speaker that always fails with err.
func WithError(err error) *Mock {
	return &Mock{SpeakFunc: func(context.Context, string) error { return err }}
}

// Speak records text and calls SpeakFunc.
func (m *Mock) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Text: text, Time: time.Now()})
	m.mu.Unlock()
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text)
	}
	return nil
}

// Phrases returns every text passed to Speak, in order.
func (m *Mock) Phrases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Text
	}
	return out
}

// CallCount returns the number of Speak calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Speaker at compile time.
var _ Speaker = (*Mock)(nil)

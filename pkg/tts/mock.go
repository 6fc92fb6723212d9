package tts

import (
	"context"
	"sync"
	"time"
)

// Mock is a Provider for tests. Nil funcs succeed: Synthesize returns
// Silence(text).
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error
	CloseFunc      func() error

	// Delay is waited before each Synthesize, honouring ctx.
	Delay time.Duration

	mu     sync.Mutex
	calls  []MockCall
	closed int
}

// MockCall is one recorded Synthesize or Health call.
type MockCall struct {
	Method string
	Text   string
}

// NewMock returns a mock that synthesizes silence.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose Synthesize and Health always fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	if text == "" {
		return nil, WrapError("mock", ErrEmptyText)
	}
	return Silence(text), nil
}

func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text})
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Texts returns every phrase passed to Synthesize, in order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c.Method == "Synthesize" {
			out = append(out, c.Text)
		}
	}
	return out
}

// CallCount counts calls to method. "Close" is counted too.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if method == "Close" {
		return m.closed
	}
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Silence is 20ms of 24kHz PCM16 silence per character of text.
func Silence(text string) *AudioResult {
	const bytesPerChar = 960
	return &AudioResult{
		Audio:     make([]byte, len(text)*bytesPerChar),
		Format:    PCMFormat(EncodingPCM24),
		CharCount: len(text),
		Duration:  time.Duration(len(text)) * 20 * time.Millisecond,
	}
}

var _ Provider = (*Mock)(nil)

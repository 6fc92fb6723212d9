package audio

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

// Mock implements Player for testing.
type Mock struct {
	// PlayFunc is called when Play is invoked. If nil, Play succeeds.
	PlayFunc func(ctx context.Context, audio *tts.AudioResult) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Bytes  int
	Time   time.Time
}

// NewMock returns a mock player that always succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// Play calls PlayFunc and records the call.
func (m *Mock) Play(ctx context.Context, audio *tts.AudioResult) error {
	n := 0
	if audio != nil {
		n = len(audio.Audio)
	}
	m.record("Play", n)
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, audio)
	}
	return nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close", 0)
	return nil
}

func (m *Mock) record(method string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Bytes: n, Time: time.Now()})
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

// Verify Mock implements Player at compile time.
var _ Player = (*Mock)(nil)

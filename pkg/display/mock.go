package display

import (
	"context"
	"sync"
)

// Mock implements Sink for testing.
type Mock struct {
	// RenderFunc is called when Render is invoked. If nil, Render succeeds
	// and never quits.
	RenderFunc func(ctx context.Context, o Overlay) (bool, error)

	mu       sync.Mutex
	overlays []Overlay
	closes   int
}

// NewMock creates a sink that records every overlay.
func NewMock() *Mock {
	return &Mock{}
}

// QuitAfter returns a mock that asks to quit on the nth render.
func QuitAfter(n int) *Mock {
	m := &Mock{}
	m.RenderFunc = func(ctx context.Context, o Overlay) (bool, error) {
		return m.RenderCount() >= n, nil
	}
	return m
}

// Render records o and calls RenderFunc.
func (m *Mock) Render(ctx context.Context, o Overlay) (bool, error) {
	m.mu.Lock()
	m.overlays = append(m.overlays, o)
	m.mu.Unlock()
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, o)
	}
	return false, nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Overlays returns every rendered overlay.
func (m *Mock) Overlays() []Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Overlay, len(m.overlays))
	copy(out, m.overlays)
	return out
}

// RenderCount returns the number of Render calls.
func (m *Mock) RenderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.overlays)
}

// CloseCount returns the number of Close calls.
func (m *Mock) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

var _ Sink = (*Mock)(nil)

package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type written struct {
	kind int
	data []byte
}

type fakeConn struct {
	mu     sync.Mutex
	writes []written
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error                      { f.once.Do(func() { close(f.closed) }); return nil }
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, written{kind, append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) messages(kind int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, w := range f.writes {
		if w.kind == kind {
			out = append(out, string(w.data))
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastJSON(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", nil)
	go h.Run(ctx)

	conn := newFakeConn()
	c := NewClient(h, conn, NewJSONMessage([]byte(`{"hello":true}`)))
	go c.Run()
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	if err := h.BroadcastJSON(map[string]int{"n": 1}); err != nil {
		t.Fatalf("BroadcastJSON() error = %v", err)
	}
	waitFor(t, "two text messages", func() bool { return len(conn.messages(websocket.TextMessage)) == 2 })

	got := conn.messages(websocket.TextMessage)
	if got[0] != `{"hello":true}` {
		t.Errorf("first message = %s, want initial message", got[0])
	}
	if got[1] != `{"n":1}` {
		t.Errorf("second message = %s", got[1])
	}
}

func TestHub_BroadcastBinary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("camera", nil)
	go h.Run(ctx)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	h.BroadcastBinary([]byte{0xFF, 0xD8})
	waitFor(t, "binary message", func() bool { return len(conn.messages(websocket.BinaryMessage)) == 1 })
}

func TestHub_EvictsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("slow", nil)
	go h.Run(ctx)

	// Never started, so nothing drains its buffer.
	NewClient(h, newFakeConn())
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	for i := 0; i <= clientBuffer; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	waitFor(t, "eviction", func() bool { return h.ClientCount() == 0 })
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", nil)
	go h.Run(ctx)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, "unregister", func() bool { return h.ClientCount() == 0 })
}

func TestHub_StopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New("test", nil)
	go h.Run(ctx)

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		NewClient(h, conn).Run()
		close(done)
	}()
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	cancel()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not exit after hub stopped")
	}
	if h.IsRunning() {
		t.Error("IsRunning() = true after stop")
	}

	// Registering with a stopped hub must not block.
	NewClient(h, newFakeConn()).Run()
}

package display

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// Window shows annotated frames in an OpenCV window and watches for the
// quit key.
type Window struct {
	title   string
	quitKey int

	mu     sync.Mutex
	win    *gocv.Window
	closed bool
}

// DefaultWindowTitle is used when NewWindow gets an empty title.
const DefaultWindowTitle = "Emotion Detection"

// NewWindow opens a window. quitKey 0 means DefaultQuitKey.
func NewWindow(title string, quitKey rune) *Window {
	if title == "" {
		title = DefaultWindowTitle
	}
	if quitKey == 0 {
		quitKey = DefaultQuitKey
	}
	return &Window{
		title:   title,
		quitKey: int(quitKey),
		win:     gocv.NewWindow(title),
	}
}

// Render draws o and polls the keyboard for one millisecond.
func (w *Window) Render(ctx context.Context, o Overlay) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !o.Frame.Valid() {
		return false, nil
	}

	mat, err := annotate(o)
	defer mat.Close()
	if err != nil {
		return false, err
	}

	w.win.IMShow(mat)
	key := w.win.WaitKey(1)
	return key >= 0 && key&0xFF == w.quitKey, nil
}

// Close destroys the window. Safe to call more than once.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}

var _ Sink = (*Window)(nil)

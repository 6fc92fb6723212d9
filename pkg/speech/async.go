package speech

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize bounds pending phrases.
const DefaultQueueSize = 4

// AsyncStats counts what happened to queued phrases.
type AsyncStats struct {
	Queued  int64
	Spoken  int64
	Failed  int64
	Dropped int64
}

// Async queues phrases for a single worker. Phrases are spoken in the order
// they were accepted, each at most once. Speak never blocks on audio.
type Async struct {
	inner  Speaker
	queue  chan string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	queued, spoken, failed, dropped atomic.Int64
}

// NewAsync starts a worker speaking through inner. size <= 0 uses
// DefaultQueueSize.
func NewAsync(inner Speaker, size int, logger *slog.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Async{
		inner:  inner,
		queue:  make(chan string, size),
		logger: logger.With("component", "speech.async"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Speak enqueues text. It returns ErrQueueFull, after logging a warning,
// when the queue has no room. The caller has already committed the report
// by then, so a dropped phrase is never retried and that report stays
// silent. A queue deeper than the reports one cooldown window can produce
// keeps this from happening in practice.
func (a *Async) Speak(ctx context.Context, text string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- text:
		a.queued.Add(1)
		return nil
	default:
		a.dropped.Add(1)
		a.logger.Warn("speech queue full, dropping phrase", "text", text, "capacity", cap(a.queue))
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for text := range a.queue {
		if a.ctx.Err() != nil {
			a.dropped.Add(1)
			continue
		}
		if err := a.inner.Speak(a.ctx, text); err != nil {
			a.failed.Add(1)
			a.logger.Warn("speech failed", "stage", "speak", "text", text, "error", err)
			continue
		}
		a.spoken.Add(1)
	}
}

// Pending returns the number of phrases waiting for the worker.
func (a *Async) Pending() int {
	return len(a.queue)
}

// Stats returns a snapshot of the counters.
func (a *Async) Stats() AsyncStats {
	return AsyncStats{
		Queued:  a.queued.Load(),
		Spoken:  a.spoken.Load(),
		Failed:  a.failed.Load(),
		Dropped: a.dropped.Load(),
	}
}

// Drain waits until every accepted phrase has been handled, then stops the
// worker. ctx bounds the wait; on expiry in-flight speech is cancelled.
func (a *Async) Drain(ctx context.Context) error {
	a.stopAccepting()
	select {
	case <-a.done:
		a.cancel()
		return nil
	case <-ctx.Done():
		a.cancel()
		<-a.done
		return ctx.Err()
	}
}

// Close cancels in-flight speech, drops anything still queued and waits for
// the worker to exit.
func (a *Async) Close() error {
	a.cancel()
	a.stopAccepting()
	<-a.done
	return nil
}

func (a *Async) stopAccepting() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.queue)
}

// Verify Async implements Speaker at compile time.
var _ Speaker = (*Async)(nil)

package speech_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/teslashibe/go-emotive/pkg/audio"
	"github.com/teslashibe/go-emotive/pkg/speech"
	"github.com/teslashibe/go-emotive/pkg/tts"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLogSpeaker(t *testing.T) {
	var buf bytes.Buffer
	s := speech.NewLog(&buf, quiet)

	if err := s.Speak(context.Background(), "Hello there!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "Robot says: Hello there!\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestTTSSpeaker(t *testing.T) {
	provider := tts.NewMock()
	player := audio.NewMock()
	s := speech.NewTTS(provider, player, quiet)

	if err := s.Speak(context.Background(), "Oh, you look surprised!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.CallCount("Synthesize") != 1 {
		t.Error("expected one synthesis")
	}
	if player.CallCount("Play") != 1 {
		t.Error("expected one playback")
	}

	t.Run("synthesis failure", func(t *testing.T) {
		boom := errors.New("quota")
		s := speech.NewTTS(tts.WithError(boom), audio.NewMock(), quiet)
		if err := s.Speak(context.Background(), "hi"); !errors.Is(err, boom) {
			t.Errorf("expected wrapped provider error, got %v", err)
		}
	})

	t.Run("blank text skipped", func(t *testing.T) {
		p := tts.NewMock()
		s := speech.NewTTS(p, audio.NewMock(), quiet)
		_ = s.Speak(context.Background(), "  ")
		if p.CallCount("Synthesize") != 0 {
			t.Error("blank text should not be synthesized")
		}
	})

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if player.CallCount("Close") != 1 {
		t.Error("expected player to be closed")
	}
}

func TestMulti(t *testing.T) {
	a := speech.NewMock()
	b := speech.WithError(errors.New("down"))
	c := speech.NewMock()

	err := speech.Multi{a, b, c}.Speak(context.Background(), "hi")
	if err == nil {
		t.Error("expected joined error")
	}
	if a.CallCount() != 1 || c.CallCount() != 1 {
		t.Error("every speaker should be called")
	}
}

func TestAsyncPreservesOrder(t *testing.T) {
	inner := speech.NewMock()
	a := speech.NewAsync(inner, 8, quiet)

	phrases := []string{"one", "two", "three"}
	for _, p := range phrases {
		if err := a.Speak(context.Background(), p); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if got := inner.Phrases(); !reflect.DeepEqual(got, phrases) {
		t.Errorf("expected %v, got %v", phrases, got)
	}
	if st := a.Stats(); st.Spoken != 3 || st.Queued != 3 {
		t.Errorf("unexpected stats %+v", st)
	}
	if err := a.Speak(context.Background(), "late"); !errors.Is(err, speech.ErrClosed) {
		t.Errorf("expected ErrClosed after drain, got %v", err)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	inner := &speech.Mock{SpeakFunc: func(ctx context.Context, text string) error {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	a := speech.NewAsync(inner, 1, quiet)

	// First phrase occupies the worker, second fills the queue.
	_ = a.Speak(context.Background(), "first")
	<-started
	if err := a.Speak(context.Background(), "second"); err != nil {
		t.Fatalf("second should queue: %v", err)
	}
	if err := a.Speak(context.Background(), "third"); !errors.Is(err, speech.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if a.Stats().Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", a.Stats().Dropped)
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if got := inner.Phrases(); !reflect.DeepEqual(got, []string{"first", "second"}) {
		t.Errorf("unexpected phrases %v", got)
	}
}

func TestAsyncCountsFailures(t *testing.T) {
	a := speech.NewAsync(speech.WithError(errors.New("no speaker")), 2, quiet)
	_ = a.Speak(context.Background(), "hi")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = a.Drain(ctx)

	if st := a.Stats(); st.Failed != 1 || st.Spoken != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestAsyncCloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	inner := &speech.Mock{SpeakFunc: func(ctx context.Context, text string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	a := speech.NewAsync(inner, 2, quiet)
	_ = a.Speak(context.Background(), "long phrase")
	<-started

	done := make(chan struct{})
	go func() {
		_ = a.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel in-flight speech")
	}
}

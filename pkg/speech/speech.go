// Package speech delivers reaction phrases to a listener.
//
// A Speaker either prints the phrase (Log), synthesizes and plays it (TTS),
// or hands it to a background worker so the frame loop never waits on
// audio (Async).
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/teslashibe/go-emotive/pkg/audio"
	"github.com/teslashibe/go-emotive/pkg/tts"
)

var (
	// ErrQueueFull is returned by Async when the queue has no room.
	ErrQueueFull = errors.New("speech: queue full")

	// ErrClosed is returned when speaking on a closed speaker.
	ErrClosed = errors.New("speech: speaker closed")
)

// Speaker says one phrase.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Log prints phrases instead of voicing them.
type Log struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

// NewLog returns a speaker writing "Robot says: <text>" lines to out.
// A nil out means stdout.
func NewLog(out io.Writer, logger *slog.Logger) *Log {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{out: out, logger: logger.With("component", "speech.log")}
}

// Speak writes the phrase.
func (l *Log) Speak(ctx context.Context, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Debug("speak", "text", text)
	_, err := fmt.Fprintf(l.out, "Robot says: %s\n", text)
	return err
}

// TTS synthesizes phrases with a provider and plays them.
type TTS struct {
	provider tts.Provider
	player   audio.Player
	logger   *slog.Logger
}

// NewTTS combines a provider and a player.
func NewTTS(provider tts.Provider, player audio.Player, logger *slog.Logger) *TTS {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTS{
		provider: provider,
		player:   player,
		logger:   logger.With("component", "speech.tts"),
	}
}

// Speak synthesizes text and blocks until playback finishes.
func (s *TTS) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	res, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if err := s.player.Play(ctx, res); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	s.logger.Debug("spoke", "text", text, "latency_ms", res.LatencyMs, "duration", res.Duration)
	return nil
}

// Close releases the provider and player.
func (s *TTS) Close() error {
	return errors.Join(s.provider.Close(), s.player.Close())
}

// Multi speaks through every speaker in order and joins their errors.
type Multi []Speaker

// Speak implements Speaker.
func (m Multi) Speak(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify implementations at compile time.
var (
	_ Speaker = (*Log)(nil)
	_ Speaker = (*TTS)(nil)
	_ Speaker = Multi(nil)
)

// Package reactor turns a reported emotion into a spoken phrase.
package reactor

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-emotive/pkg/speech"
)

// Stats counts dispatched reactions.
type Stats struct {
	Reactions int64
	Failures  int64
}

// Reactor looks up phrases and hands them to a Speaker. Speech failures are
// logged and counted, never returned.
type Reactor struct {
	phrases *PhraseTable
	speaker speech.Speaker
	logger  *slog.Logger

	reactions atomic.Int64
	failures  atomic.Int64
}

// New creates a reactor. A nil table uses DefaultPhrases.
func New(phrases *PhraseTable, speaker speech.Speaker, logger *slog.Logger) *Reactor {
	if phrases == nil {
		phrases = DefaultPhrases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reactor{
		phrases: phrases,
		speaker: speaker,
		logger:  logger.With("component", "reactor"),
	}
}

// React speaks the phrase for label and returns it.
func (r *Reactor) React(ctx context.Context, label string) string {
	text := r.phrases.Lookup(label)
	r.reactions.Add(1)

	r.logger.Info("reaction", "emotion", label, "phrase", text)

	if r.speaker == nil {
		return text
	}
	if err := r.speaker.Speak(ctx, text); err != nil {
		r.failures.Add(1)
		r.logger.Warn("speech failed", "stage", "speak", "emotion", label, "error", err)
	}
	return text
}

// Phrases returns the table in use.
func (r *Reactor) Phrases() *PhraseTable {
	return r.phrases
}

// Stats returns a snapshot of the counters.
func (r *Reactor) Stats() Stats {
	return Stats{
		Reactions: r.reactions.Load(),
		Failures:  r.failures.Load(),
	}
}

// Package audio plays synthesized speech on the robot or locally.
package audio

import (
	"context"
	"errors"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

var (
	// ErrUnsupportedFormat is returned when a player cannot handle an encoding.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrClosed is returned when playing on a closed player.
	ErrClosed = errors.New("audio: player closed")
)

// Player plays one synthesis result to completion.
type Player interface {
	// Play blocks until the audio has been played or ctx is cancelled.
	Play(ctx context.Context, audio *tts.AudioResult) error

	// Close releases the output device or connection.
	Close() error
}

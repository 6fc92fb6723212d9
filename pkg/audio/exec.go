package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

// ExecPlayer pipes audio into a local command's stdin.
type ExecPlayer struct {
	// Command builds the argv for one result. Defaults to FFPlayArgs.
	Command func(format tts.AudioFormat) []string

	Logger *slog.Logger
}

// NewExecPlayer returns a player using ffplay.
func NewExecPlayer() *ExecPlayer {
	return &ExecPlayer{Command: FFPlayArgs, Logger: slog.Default()}
}

// FFPlayArgs plays raw PCM16 or compressed audio with ffplay.
func FFPlayArgs(format tts.AudioFormat) []string {
	args := []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
	if format.Encoding.IsPCM() {
		args = append(args, "-f", "s16le",
			"-ar", strconv.Itoa(format.SampleRate),
			"-ac", strconv.Itoa(max(format.Channels, 1)))
	}
	return append(args, "-i", "-")
}

// APlayArgs plays raw PCM16 with ALSA aplay.
func APlayArgs(format tts.AudioFormat) []string {
	return []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE",
		"-r", strconv.Itoa(format.SampleRate),
		"-c", strconv.Itoa(max(format.Channels, 1)),
		"-"}
}

// Play runs the command and waits for it to exit.
func (p *ExecPlayer) Play(ctx context.Context, audio *tts.AudioResult) error {
	if audio == nil || len(audio.Audio) == 0 {
		return nil
	}
	build := p.Command
	if build == nil {
		build = FFPlayArgs
	}
	argv := build(audio.Format)
	if len(argv) == 0 {
		return fmt.Errorf("%w: no command for %s", ErrUnsupportedFormat, audio.Format.Encoding)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(audio.Audio)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", argv[0], err, bytes.TrimSpace(stderr.Bytes()))
	}

	if p.Logger != nil {
		p.Logger.Debug("played audio", "component", "audio.exec", "cmd", argv[0], "bytes", len(audio.Audio))
	}
	return nil
}

// Close is a no-op.
func (p *ExecPlayer) Close() error {
	return nil
}

// Verify ExecPlayer implements Player at compile time.
var _ Player = (*ExecPlayer)(nil)

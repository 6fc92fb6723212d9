package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

// Robot speaker stream parameters: the robot's GStreamer pipeline expects
// 48kHz mono Opus in 20ms frames, RTP payload type 96, on UDP 5000.
const (
	OpusSampleRate  = 48000
	FrameDuration   = 20 * time.Millisecond
	FrameSamples    = OpusSampleRate / 50
	PayloadTypeOpus = 96
	DefaultRTPPort  = 5000
	maxOpusPacket   = 4000
)

// Encoder encodes one frame of PCM16 into data, returning the byte count.
// *opus.Encoder satisfies it.
type Encoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

// RTPConfig configures an RTPPlayer.
type RTPConfig struct {
	// Addr is the robot's audio endpoint, host:port.
	Addr string

	// Pace sends frames in real time. Disable only for tests.
	Pace bool

	// Encoder overrides the libopus encoder.
	Encoder Encoder

	Logger *slog.Logger
}

// DefaultRTPConfig returns a config targeting robotIP on DefaultRTPPort.
func DefaultRTPConfig(robotIP string) RTPConfig {
	return RTPConfig{
		Addr: net.JoinHostPort(robotIP, fmt.Sprint(DefaultRTPPort)),
		Pace: true,
	}
}

// RTPPlayer streams PCM speech to the robot as Opus over RTP.
type RTPPlayer struct {
	conn    net.Conn
	encoder Encoder
	pace    bool
	logger  *slog.Logger

	mu     sync.Mutex
	seq    uint16
	ts     uint32
	ssrc   uint32
	closed bool
}

// NewRTPPlayer dials cfg.Addr over UDP and prepares the encoder.
func NewRTPPlayer(cfg RTPConfig) (*RTPPlayer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	enc := cfg.Encoder
	if enc == nil {
		oe, err := opus.NewEncoder(OpusSampleRate, 1, opus.AppVoIP)
		if err != nil {
			return nil, fmt.Errorf("opus encoder: %w", err)
		}
		enc = oe
	}

	conn, err := net.Dial("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}

	return &RTPPlayer{
		conn:    conn,
		encoder: enc,
		pace:    cfg.Pace,
		logger:  cfg.Logger.With("component", "audio.rtp", "addr", cfg.Addr),
		seq:     uint16(rand.Intn(1 << 16)),
		ts:      rand.Uint32(),
		ssrc:    rand.Uint32(),
	}, nil
}

// Play resamples PCM audio to 48kHz and sends it frame by frame.
func (p *RTPPlayer) Play(ctx context.Context, audio *tts.AudioResult) error {
	if audio == nil || len(audio.Audio) == 0 {
		return nil
	}
	if !audio.IsPCM() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, audio.Format.Encoding)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	samples := Resample(BytesToSamples(audio.Audio), audio.Format.SampleRate, OpusSampleRate)
	frames := Frames(samples, FrameSamples)

	var ticker *time.Ticker
	if p.pace {
		ticker = time.NewTicker(FrameDuration)
		defer ticker.Stop()
	}

	buf := make([]byte, maxOpusPacket)
	start := time.Now()
	for i, frame := range frames {
		if ticker != nil && i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		n, err := p.encoder.Encode(frame, buf)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}

		pkt := rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    PayloadTypeOpus,
				SequenceNumber: p.seq,
				Timestamp:      p.ts,
				SSRC:           p.ssrc,
				Marker:         i == 0,
			},
			Payload: buf[:n],
		}
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rtp: %w", err)
		}
		if _, err := p.conn.Write(raw); err != nil {
			return fmt.Errorf("send rtp: %w", err)
		}

		p.seq++
		p.ts += FrameSamples
	}

	p.logger.Debug("played audio",
		"frames", len(frames),
		"duration", audio.Duration,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close closes the UDP socket.
func (p *RTPPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}

// Verify RTPPlayer implements Player at compile time.
var _ Player = (*RTPPlayer)(nil)

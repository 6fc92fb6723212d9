package audio

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		from, to int
		want     int
	}{
		{"same rate", 5, 24000, 24000, 5},
		{"24k to 48k", 480, 24000, 48000, 960},
		{"48k to 24k", 960, 48000, 24000, 480},
		{"16k to 48k", 320, 16000, 48000, 960},
		{"empty", 0, 24000, 48000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(make([]int16, tt.in), tt.from, tt.to)
			if len(got) != tt.want {
				t.Errorf("expected %d samples, got %d", tt.want, len(got))
			}
		})
	}
}

func TestResampleInterpolates(t *testing.T) {
	got := Resample([]int16{0, 100}, 24000, 48000)
	if len(got) != 4 || got[0] != 0 || got[1] != 50 || got[2] != 100 {
		t.Errorf("unexpected interpolation %v", got)
	}
}

func TestBytesSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768}
	got := BytesToSamples(SamplesToBytes(samples))
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
	if n := len(BytesToSamples([]byte{1, 2, 3})); n != 1 {
		t.Errorf("odd trailing byte should be dropped, got %d samples", n)
	}
}

func TestFrames(t *testing.T) {
	frames := Frames(make([]int16, 2000), FrameSamples)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if len(f) != FrameSamples {
			t.Errorf("frame %d has %d samples", i, len(f))
		}
	}
	if Frames(nil, FrameSamples) != nil {
		t.Error("expected nil frames for empty input")
	}
}

type fakeEncoder struct{ frames int }

func (f *fakeEncoder) Encode(pcm []int16, data []byte) (int, error) {
	f.frames++
	data[0] = byte(len(pcm) / 10)
	return 1, nil
}

func TestRTPPlayer(t *testing.T) {
	ln, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	enc := &fakeEncoder{}
	p, err := NewRTPPlayer(RTPConfig{Addr: ln.LocalAddr().String(), Encoder: enc})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// 50ms at 24kHz becomes 2400 samples at 48kHz, three 20ms frames.
	audio := &tts.AudioResult{
		Audio:  make([]byte, 1200*2),
		Format: tts.PCMFormat(tts.EncodingPCM24),
	}
	if err := p.Play(context.Background(), audio); err != nil {
		t.Fatalf("play: %v", err)
	}
	if enc.frames != 3 {
		t.Errorf("expected 3 encoded frames, got %d", enc.frames)
	}

	buf := make([]byte, 1500)
	var prev *rtp.Packet
	for i := 0; i < 3; i++ {
		_ = ln.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := ln.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read packet %d: %v", i, err)
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			t.Fatalf("unmarshal packet %d: %v", i, err)
		}
		if pkt.PayloadType != PayloadTypeOpus {
			t.Errorf("payload type %d", pkt.PayloadType)
		}
		if i == 0 && !pkt.Marker {
			t.Error("first packet should carry the marker bit")
		}
		if prev != nil {
			if pkt.SequenceNumber != prev.SequenceNumber+1 {
				t.Errorf("sequence jump %d -> %d", prev.SequenceNumber, pkt.SequenceNumber)
			}
			if pkt.Timestamp-prev.Timestamp != FrameSamples {
				t.Errorf("timestamp step %d", pkt.Timestamp-prev.Timestamp)
			}
		}
		prev = &pkt
	}
}

func TestRTPPlayerRejectsMP3(t *testing.T) {
	p, err := NewRTPPlayer(RTPConfig{Addr: "127.0.0.1:9", Encoder: &fakeEncoder{}})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	err = p.Play(context.Background(), &tts.AudioResult{
		Audio:  []byte{1, 2, 3},
		Format: tts.AudioFormat{Encoding: tts.EncodingMP3},
	})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	_ = p.Close()
	err = p.Play(context.Background(), tts.Silence("hi"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestExecPlayer(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	ok := &ExecPlayer{Command: func(tts.AudioFormat) []string { return []string{"cat"} }}
	if err := ok.Play(context.Background(), tts.Silence("hi")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	fail := &ExecPlayer{Command: func(tts.AudioFormat) []string { return []string{"false"} }}
	if err := fail.Play(context.Background(), tts.Silence("hi")); err == nil {
		t.Error("expected error from failing command")
	}
}

func TestFFPlayArgs(t *testing.T) {
	args := FFPlayArgs(tts.PCMFormat(tts.EncodingPCM24))
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f s16le -ar 24000 -ac 1") {
		t.Errorf("unexpected args %q", joined)
	}
	mp3 := strings.Join(FFPlayArgs(tts.AudioFormat{Encoding: tts.EncodingMP3}), " ")
	if strings.Contains(mp3, "s16le") {
		t.Errorf("mp3 should not force raw input: %q", mp3)
	}
}

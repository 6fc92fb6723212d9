package video

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os/exec"
	"time"
)

// Decoder turns an Annex-B H264 chunk into one JPEG image.
// A nil result with nil error means the chunk held no complete picture.
type Decoder interface {
	Decode(ctx context.Context, h264 []byte) ([]byte, error)
}

// minChunk is the smallest H264 chunk worth handing to the decoder.
const minChunk = 100

// FFmpegDecoder pipes each chunk through a one-shot ffmpeg process.
type FFmpegDecoder struct {
	// Path is the ffmpeg binary.
	Path string

	// Timeout bounds one decode.
	Timeout time.Duration
}

// NewFFmpegDecoder creates a decoder using ffmpeg from PATH.
func NewFFmpegDecoder() *FFmpegDecoder {
	return &FFmpegDecoder{Path: "ffmpeg", Timeout: 200 * time.Millisecond}
}

// Decode implements Decoder.
func (d *FFmpegDecoder) Decode(ctx context.Context, h264 []byte) ([]byte, error) {
	if len(h264) < minChunk {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.Path,
		"-loglevel", "error",
		"-f", "h264",
		"-i", "pipe:0",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"pipe:1",
	)
	var stdout bytes.Buffer
	cmd.Stdin = bytes.NewReader(h264)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("video: decode timed out: %w", ctx.Err())
		}
		// ffmpeg exits non-zero when the chunk lacks a full picture.
		return nil, nil
	}

	data := stdout.Bytes()
	if IsBlankJPEG(data) {
		return nil, nil
	}
	return data, nil
}

// IsBlankJPEG reports whether data is too small, undecodable, nearly black
// or flat gray. The robot stream emits such frames while the encoder warms up.
func IsBlankJPEG(data []byte) bool {
	if len(data) < 1000 {
		return true
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return true
	}

	b := img.Bounds()
	if b.Dx() < 100 || b.Dy() < 100 {
		return true
	}

	var rSum, gSum, bSum, n int
	for y := b.Min.Y; y < b.Max.Y; y += b.Dy() / 10 {
		for x := b.Min.X; x < b.Max.X; x += b.Dx() / 10 {
			r, g, bl, _ := img.At(x, y).RGBA()
			rSum += int(r >> 8)
			gSum += int(g >> 8)
			bSum += int(bl >> 8)
			n++
		}
	}
	avgR, avgG, avgB := rSum/n, gSum/n, bSum/n

	if avgR < 30 && avgG < 30 && avgB < 30 {
		return true
	}
	diff := abs(avgR-avgG) + abs(avgG-avgB) + abs(avgR-avgB)
	return diff < 15 && avgR > 100 && avgR < 150
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

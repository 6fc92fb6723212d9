package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-emotive/pkg/frame"
)

func TestParseWelcome(t *testing.T) {
	tests := []struct {
		msg     string
		want    string
		wantErr bool
	}{
		{`{"type":"welcome","peerId":"abc-123"}`, "abc-123", false},
		{`{"type":"list"}`, "", true},
		{`{"type":"welcome"}`, "", true},
		{`not json`, "", true},
	}
	for _, tt := range tests {
		got, err := parseWelcome([]byte(tt.msg))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseWelcome(%s) = %q, %v", tt.msg, got, err)
		}
	}
}

func TestPickProducer(t *testing.T) {
	msg := `{"type":"list","producers":[
		{"id":"p1","meta":{"name":"other"}},
		{"id":"p2","meta":{"name":"reachymini"}}]}`
	id, err := pickProducer([]byte(msg), DefaultProducer)
	if err != nil || id != "p2" {
		t.Errorf("pickProducer() = %q, %v", id, err)
	}
	if _, err := pickProducer([]byte(`{"type":"list","producers":[]}`), DefaultProducer); err == nil {
		t.Error("expected error for missing producer")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestNext_NewestFrameOnce(t *testing.T) {
	c := NewClient(DefaultConfig("127.0.0.1"))
	ctx := context.Background()

	if _, err := c.Next(ctx); !errors.Is(err, frame.ErrNoFrame) {
		t.Fatalf("Next() before any frame = %v, want ErrNoFrame", err)
	}

	first := image.NewRGBA(image.Rect(0, 0, 10, 10))
	second := image.NewRGBA(image.Rect(0, 0, 20, 20))
	c.publish(first)
	c.publish(second)

	f, err := c.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Image != second || f.Seq != 1 {
		t.Errorf("got seq %d size %v, want newest frame", f.Seq, f.Bounds().Size())
	}
	if _, err := c.Next(ctx); !errors.Is(err, frame.ErrNoFrame) {
		t.Errorf("same frame served twice: %v", err)
	}

	c.publish(first)
	if f, err := c.Next(ctx); err != nil || f.Seq != 2 {
		t.Errorf("Next() = %v, %v", f, err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Next(ctx); !errors.Is(err, frame.ErrClosed) {
		t.Errorf("Next() after Close = %v, want ErrClosed", err)
	}
}

// signaller serves a scripted handshake.
func signaller(t *testing.T, welcome, list string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(welcome))
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(list))
		// Hold the connection until the client gives up.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func testConfig(srv *httptest.Server) Config {
	cfg := DefaultConfig("unused")
	cfg.SignallingURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.HandshakeTimeout = time.Second
	cfg.TrackTimeout = 200 * time.Millisecond
	return cfg
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name    string
		welcome string
		list    string
		want    string
	}{
		{"bad welcome", `{"type":"error"}`, `{}`, "welcome"},
		{"no producer", `{"type":"welcome","peerId":"me"}`, `{"type":"list","producers":[]}`, "producer not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := signaller(t, tt.welcome, tt.list)
			defer srv.Close()

			c := NewClient(testConfig(srv))
			defer c.Close()
			err := c.Open(context.Background())
			if !frame.IsFatal(err) {
				t.Fatalf("Open() error = %v, want fatal", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestOpen_NoTrackTimesOut(t *testing.T) {
	srv := signaller(t, `{"type":"welcome","peerId":"me"}`,
		`{"type":"list","producers":[{"id":"cam","meta":{"name":"reachymini"}}]}`)
	defer srv.Close()

	c := NewClient(testConfig(srv))
	defer c.Close()
	err := c.Open(context.Background())
	if !frame.IsFatal(err) || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("Open() error = %v, want track timeout", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := DefaultConfig("127.0.0.1")
	cfg.SignallingURL = "ws://127.0.0.1:1"
	c := NewClient(cfg)
	defer c.Close()
	if err := c.Open(context.Background()); !frame.IsFatal(err) {
		t.Fatalf("Open() error = %v, want fatal", err)
	}
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fill(w, h int, f func(x, y int) color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, f(x, y))
		}
	}
	return img
}

func TestIsBlankJPEG(t *testing.T) {
	scene := fill(320, 240, func(x, y int) color.RGBA {
		return color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x * y) % 256), 255}
	})
	black := fill(320, 240, func(int, int) color.RGBA { return color.RGBA{5, 5, 5, 255} })
	gray := fill(320, 240, func(int, int) color.RGBA { return color.RGBA{128, 128, 128, 255} })
	tiny := fill(50, 50, func(x, y int) color.RGBA { return color.RGBA{uint8(x), uint8(y), 90, 255} })

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"scene", encode(t, scene), false},
		{"black", encode(t, black), true},
		{"gray", encode(t, gray), true},
		{"tiny", encode(t, tiny), true},
		{"garbage", bytes.Repeat([]byte{0xAB}, 2000), true},
		{"short", []byte{0xFF, 0xD8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlankJPEG(tt.data); got != tt.want {
				t.Errorf("IsBlankJPEG() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFFmpegDecoder_ShortChunk(t *testing.T) {
	d := NewFFmpegDecoder()
	d.Path = "/nonexistent/ffmpeg"
	out, err := d.Decode(context.Background(), make([]byte, 10))
	if out != nil || err != nil {
		t.Errorf("Decode(short) = %v, %v", out, err)
	}
}

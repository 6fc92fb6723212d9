// Package video receives the robot head camera over WebRTC and serves it as
// a frame.Source. Signalling follows the GStreamer webrtcsink protocol on
// port 8443; H264 is decoded to JPEG by ffmpeg.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-emotive/pkg/frame"
)

// DefaultProducer is the webrtcsink producer name of the robot camera.
const DefaultProducer = "reachymini"

// Config holds client configuration.
type Config struct {
	// SignallingURL is the websocket URL of the signaller.
	SignallingURL string

	// Producer is the meta name of the stream to subscribe to.
	Producer string

	HandshakeTimeout time.Duration

	// TrackTimeout bounds the wait for the video track after the session
	// starts.
	TrackTimeout time.Duration

	// DecodeInterval is how much H264 is buffered between decodes.
	DecodeInterval time.Duration

	Decoder Decoder
	Logger  *slog.Logger
}

// DefaultConfig returns the configuration for a robot at robotIP.
func DefaultConfig(robotIP string) Config {
	return Config{
		SignallingURL:    fmt.Sprintf("ws://%s:8443", robotIP),
		Producer:         DefaultProducer,
		HandshakeTimeout: 10 * time.Second,
		TrackTimeout:     15 * time.Second,
		DecodeInterval:   100 * time.Millisecond,
		Logger:           slog.Default(),
	}
}

// Client connects to the robot's WebRTC video stream.
type Client struct {
	config Config
	logger *slog.Logger

	ws      *websocket.Conn
	wsMutex sync.Mutex
	pc      *webrtc.PeerConnection

	myPeerID   string
	producerID string

	sessionMu sync.RWMutex
	sessionID string

	trackReady chan struct{}

	frameMu   sync.Mutex
	latest    image.Image
	latestGen uint64
	servedGen uint64
	seq       uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateMu sync.Mutex
	opened  bool
	closed  bool
}

// NewClient creates a client. Nothing connects until Open.
func NewClient(cfg Config) *Client {
	if cfg.Producer == "" {
		cfg.Producer = DefaultProducer
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.TrackTimeout <= 0 {
		cfg.TrackTimeout = 15 * time.Second
	}
	if cfg.DecodeInterval <= 0 {
		cfg.DecodeInterval = 100 * time.Millisecond
	}
	if cfg.Decoder == nil {
		cfg.Decoder = NewFFmpegDecoder()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		config:     cfg,
		logger:     cfg.Logger.With("component", "video.client"),
		trackReady: make(chan struct{}, 1),
	}
}

// Open performs the signalling handshake and waits for the video track.
// Any failure here is a frame.OpenError.
func (c *Client) Open(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.opened {
		return nil
	}
	if c.closed {
		return c.openError(frame.ErrClosed)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if err := c.connect(ctx, runCtx); err != nil {
		c.teardown()
		return c.openError(err)
	}
	c.opened = true
	return nil
}

func (c *Client) openError(err error) error {
	return &frame.OpenError{Source: "video " + c.config.SignallingURL, Err: err}
}

func (c *Client) connect(ctx, runCtx context.Context) error {
	c.logger.Info("connecting to signalling server", "url", c.config.SignallingURL)
	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.config.SignallingURL, nil)
	if err != nil {
		return fmt.Errorf("signalling connect failed: %w", err)
	}
	c.ws = ws

	msg, err := c.read(c.config.HandshakeTimeout)
	if err != nil {
		return fmt.Errorf("welcome failed: %w", err)
	}
	if c.myPeerID, err = parseWelcome(msg); err != nil {
		return fmt.Errorf("welcome failed: %w", err)
	}

	if err := c.writeJSON(envelope{Type: msgList}); err != nil {
		return fmt.Errorf("list producers: %w", err)
	}
	if msg, err = c.read(c.config.HandshakeTimeout); err != nil {
		return fmt.Errorf("list producers: %w", err)
	}
	if c.producerID, err = pickProducer(msg, c.config.Producer); err != nil {
		return err
	}
	c.logger.Debug("found producer", "peer", shortID(c.myPeerID), "producer", shortID(c.producerID))

	if err := c.createPeerConnection(runCtx); err != nil {
		return fmt.Errorf("peer connection failed: %w", err)
	}
	if err := c.writeJSON(envelope{Type: msgStartSession, PeerID: c.producerID}); err != nil {
		return fmt.Errorf("start session failed: %w", err)
	}

	c.wg.Add(1)
	go c.handleSignalling()

	select {
	case <-c.trackReady:
		c.logger.Info("video connected")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.config.TrackTimeout):
		return fmt.Errorf("timeout waiting for video track")
	}
}

func (c *Client) read(timeout time.Duration) ([]byte, error) {
	_ = c.ws.SetReadDeadline(time.Now().Add(timeout))
	defer c.ws.SetReadDeadline(time.Time{})
	_, msg, err := c.ws.ReadMessage()
	return msg, err
}

func (c *Client) writeJSON(v interface{}) error {
	c.wsMutex.Lock()
	defer c.wsMutex.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *Client) createPeerConnection(runCtx context.Context) error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}
	c.pc = pc

	if _, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return err
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.logger.Info("got track", "kind", track.Kind().String(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			c.wg.Add(1)
			go c.handleVideoTrack(runCtx, track)
		}
	})
	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate != nil {
			c.sendICECandidate(candidate)
		}
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.logger.Debug("connection state", "state", state.String())
	})
	return nil
}

func (c *Client) handleSignalling() {
	defer c.wg.Done()
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.logger.Warn("signalling error", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.logger.Debug("bad signalling message", "error", err)
			continue
		}
		switch env.Type {
		case msgSessionStarted:
			c.sessionMu.Lock()
			c.sessionID = env.SessionID
			c.sessionMu.Unlock()
		case msgPeer:
			c.handlePeerMessage(msg)
		case msgEndSession:
			c.logger.Warn("robot ended the video session")
			return
		}
	}
}

func (c *Client) handlePeerMessage(msg []byte) {
	var pm peerMessage
	if err := json.Unmarshal(msg, &pm); err != nil {
		c.logger.Debug("bad peer message", "error", err)
		return
	}

	if pm.SDP != nil && pm.SDP.Type == "offer" {
		offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: pm.SDP.SDP}
		if err := c.pc.SetRemoteDescription(offer); err != nil {
			c.logger.Warn("set remote description", "error", err)
			return
		}
		answer, err := c.pc.CreateAnswer(nil)
		if err != nil {
			c.logger.Warn("create answer", "error", err)
			return
		}
		if err := c.pc.SetLocalDescription(answer); err != nil {
			c.logger.Warn("set local description", "error", err)
			return
		}
		c.send(peerMessage{
			Type: msgPeer,
			SDP:  &sdpBody{Type: answer.Type.String(), SDP: answer.SDP},
		})
	}

	if pm.ICE != nil {
		if err := c.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     pm.ICE.Candidate,
			SDPMid:        pm.ICE.SDPMid,
			SDPMLineIndex: pm.ICE.SDPMLineIndex,
		}); err != nil {
			c.logger.Debug("add ICE candidate", "error", err)
		}
	}
}

func (c *Client) sendICECandidate(candidate *webrtc.ICECandidate) {
	init := candidate.ToJSON()
	c.send(peerMessage{
		Type: msgPeer,
		ICE:  &iceBody{Candidate: init.Candidate, SDPMid: init.SDPMid, SDPMLineIndex: init.SDPMLineIndex},
	})
}

// send stamps the session ID; messages before the session starts are dropped.
func (c *Client) send(pm peerMessage) {
	c.sessionMu.RLock()
	pm.SessionID = c.sessionID
	c.sessionMu.RUnlock()
	if pm.SessionID == "" {
		return
	}
	if err := c.writeJSON(pm); err != nil {
		c.logger.Debug("signalling write failed", "error", err)
	}
}

// handleVideoTrack depacketizes H264 and decodes one picture per interval.
func (c *Client) handleVideoTrack(ctx context.Context, track *webrtc.TrackRemote) {
	defer c.wg.Done()
	select {
	case c.trackReady <- struct{}{}:
	default:
	}

	var (
		depacketizer codecs.H264Packet
		nal          bytes.Buffer
		lastDecode   = time.Now()
	)
	for ctx.Err() == nil {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		payload, err := depacketizer.Unmarshal(pkt.Payload)
		if err != nil || len(payload) == 0 {
			continue
		}
		nal.Write(payload)

		if time.Since(lastDecode) < c.config.DecodeInterval {
			continue
		}
		jpegData, err := c.config.Decoder.Decode(ctx, nal.Bytes())
		nal.Reset()
		lastDecode = time.Now()
		if err != nil {
			c.logger.Debug("decode failed", "error", err)
			continue
		}
		if jpegData == nil {
			continue
		}
		img, err := frame.DecodeJPEG(jpegData)
		if err != nil {
			c.logger.Debug("bad jpeg from decoder", "error", err)
			continue
		}
		c.publish(img)
	}
}

func (c *Client) publish(img image.Image) {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	c.latest = img
	c.latestGen++
}

// Next returns the newest decoded frame. Each decoded picture is returned
// at most once; frame.ErrNoFrame means nothing new arrived.
func (c *Client) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.isClosed() {
		return nil, frame.ErrClosed
	}

	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	if c.latest == nil || c.latestGen == c.servedGen {
		return nil, frame.ErrNoFrame
	}
	c.servedGen = c.latestGen
	c.seq++
	return frame.New(c.latest, c.seq), nil
}

func (c *Client) isClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

// Close tears down the peer connection and signalling socket. Safe to call
// more than once.
func (c *Client) Close() error {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return nil
	}
	c.closed = true
	c.stateMu.Unlock()

	err := c.teardown()
	c.wg.Wait()
	return err
}

func (c *Client) teardown() error {
	if c.cancel != nil {
		c.cancel()
	}
	var err error
	if c.pc != nil {
		err = c.pc.Close()
	}
	if c.ws != nil {
		c.ws.Close()
	}
	return err
}

var _ frame.Source = (*Client)(nil)

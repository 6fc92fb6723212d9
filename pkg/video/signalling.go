package video

import (
	"encoding/json"
	"fmt"
)

// Signalling message types of the GStreamer WebRTC signaller.
const (
	msgWelcome        = "welcome"
	msgList           = "list"
	msgStartSession   = "startSession"
	msgSessionStarted = "sessionStarted"
	msgPeer           = "peer"
	msgEndSession     = "endSession"
)

type envelope struct {
	Type      string `json:"type"`
	PeerID    string `json:"peerId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type producer struct {
	ID   string            `json:"id"`
	Meta map[string]string `json:"meta"`
}

type listResponse struct {
	Type      string     `json:"type"`
	Producers []producer `json:"producers"`
}

type sdpBody struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type iceBody struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

type peerMessage struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	SDP       *sdpBody `json:"sdp,omitempty"`
	ICE       *iceBody `json:"ice,omitempty"`
}

func parseWelcome(msg []byte) (string, error) {
	var w envelope
	if err := json.Unmarshal(msg, &w); err != nil {
		return "", err
	}
	if w.Type != msgWelcome {
		return "", fmt.Errorf("expected welcome, got %q", w.Type)
	}
	if w.PeerID == "" {
		return "", fmt.Errorf("welcome without peer id")
	}
	return w.PeerID, nil
}

// pickProducer returns the ID of the producer whose meta name is name.
func pickProducer(msg []byte, name string) (string, error) {
	var list listResponse
	if err := json.Unmarshal(msg, &list); err != nil {
		return "", err
	}
	for _, p := range list.Producers {
		if p.Meta["name"] == name {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%s producer not found in %d producers", name, len(list.Producers))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

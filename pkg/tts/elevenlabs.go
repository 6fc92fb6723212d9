package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs.
const (
	// ModelTurboV2_5 is the fastest English model and the default.
	ModelTurboV2_5 = "eleven_turbo_v2_5"

	ModelFlashV2_5      = "eleven_flash_v2_5"
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs is the text-to-speech endpoint for one voice.
type ElevenLabs struct {
	config  *Config
	baseURL string
	http    *httpProvider
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// NewElevenLabs needs an API key and a voice ID.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTurboV2_5
	cfg.Apply(opts...)
	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	e := &ElevenLabs{config: cfg, baseURL: strings.TrimSuffix(baseURL, "/")}
	e.http = newHTTPProvider(providerElevenLabs, cfg, e.parseError)
	return e, nil
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(e.config.VoiceID), url.QueryEscape(string(e.config.OutputFormat)))
	s := e.config.VoiceSettings
	req := elevenLabsRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       s.Stability,
			SimilarityBoost: s.SimilarityBoost,
			Style:           s.Style,
			SpeakerBoost:    s.SpeakerBoost,
		},
	}

	accept := "audio/mpeg"
	if e.config.OutputFormat.IsPCM() {
		accept = "audio/pcm"
	}
	headers := e.headers()
	headers["Content-Type"] = "application/json"
	headers["Accept"] = accept
	return e.http.synthesize(ctx, endpoint, req, headers, text, e.outputFormat())
}

// Health fetches the account, which fails fast on a bad key.
func (e *ElevenLabs) Health(ctx context.Context) error {
	return e.http.health(ctx, e.baseURL+"/user", e.headers())
}

func (e *ElevenLabs) Close() error {
	return e.http.close()
}

// VoiceID returns the configured voice ID.
func (e *ElevenLabs) VoiceID() string {
	return e.config.VoiceID
}

func (e *ElevenLabs) headers() map[string]string {
	return map[string]string{"xi-api-key": e.config.APIKey}
}

func (e *ElevenLabs) parseError(resp *http.Response) error {
	return readAPIError(providerElevenLabs, resp, func(body []byte) (string, string, bool) {
		var d struct {
			Detail struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"detail"`
		}
		if json.Unmarshal(body, &d) != nil || d.Detail.Message == "" {
			return "", "", false
		}
		return d.Detail.Message, d.Detail.Status, true
	})
}

func (e *ElevenLabs) outputFormat() AudioFormat {
	enc := e.config.OutputFormat
	if enc.IsPCM() {
		return PCMFormat(enc)
	}
	return AudioFormat{Encoding: enc, SampleRate: SampleRateFromEncoding(enc), Channels: 1}
}

var _ Provider = (*ElevenLabs)(nil)

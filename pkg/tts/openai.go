package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"
)

// OpenAI voices.
const (
	VoiceAlloy   = "alloy"
	VoiceCoral   = "coral"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceNova    = "nova"
	VoiceOnyx    = "onyx"
	VoiceShimmer = "shimmer"
)

// OpenAI speech models. Only ModelGPT4oMiniTTS honours instructions.
const (
	ModelTTS1         = "tts-1"
	ModelTTS1HD       = "tts-1-hd"
	ModelGPT4oMiniTTS = "gpt-4o-mini-tts"
)

// DefaultSpeechInstructions set the delivery for reaction phrases.
const DefaultSpeechInstructions = "Speak warmly and briefly, like a friendly robot reacting to the face in front of it."

// OpenAI is the /audio/speech endpoint. PCM output is 24kHz mono PCM16,
// the API's only raw format.
type OpenAI struct {
	config  *Config
	baseURL string
	http    *httpProvider
}

type openAISpeechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

// NewOpenAI defaults to tts-1 with the shimmer voice.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceShimmer
	cfg.Instructions = DefaultSpeechInstructions
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceShimmer
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	o := &OpenAI{config: cfg, baseURL: strings.TrimSuffix(baseURL, "/")}
	o.http = newHTTPProvider(providerOpenAI, cfg, o.parseError)
	return o, nil
}

func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	format := o.outputFormat()
	req := openAISpeechRequest{
		Model:          o.config.ModelID,
		Voice:          o.config.VoiceID,
		Input:          text,
		ResponseFormat: "mp3",
	}
	if format.Encoding.IsPCM() {
		req.ResponseFormat = "pcm"
	}
	if o.config.ModelID == ModelGPT4oMiniTTS {
		req.Instructions = o.config.Instructions
	}
	return o.http.synthesize(ctx, o.baseURL+"/audio/speech", req, o.headers(), text, format)
}

// Health lists models, which checks the key without spending credits.
func (o *OpenAI) Health(ctx context.Context) error {
	return o.http.health(ctx, o.baseURL+"/models", o.headers())
}

func (o *OpenAI) Close() error {
	return o.http.close()
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func (o *OpenAI) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + o.config.APIKey,
		"Content-Type":  "application/json",
	}
}

func (o *OpenAI) parseError(resp *http.Response) error {
	return readAPIError(providerOpenAI, resp, func(body []byte) (string, string, bool) {
		var e struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error.Message == "" {
			return "", "", false
		}
		return e.Error.Message, e.Error.Code, true
	})
}

func (o *OpenAI) outputFormat() AudioFormat {
	if o.config.OutputFormat.IsPCM() {
		return PCMFormat(EncodingPCM24)
	}
	return AudioFormat{Encoding: EncodingMP3, SampleRate: 44100, Channels: 1}
}

var _ Provider = (*OpenAI)(nil)

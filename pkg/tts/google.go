package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
)

const providerGoogle = "google"

// DefaultGoogleVoice is a neutral US English neural voice.
const DefaultGoogleVoice = "en-US-Neural2-F"

// Google implements Provider for Google Cloud Text-to-Speech.
// It authenticates with Config.APIKey when set, otherwise with Application
// Default Credentials.
type Google struct {
	config  *Config
	service *texttospeech.Service
	logger  *slog.Logger
}

// NewGoogle creates a Cloud Text-to-Speech provider. ctx is used for
// credential discovery only.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultGoogleVoice
	cfg.LanguageCode = ""
	cfg.Apply(opts...)

	if !cfg.OutputFormat.IsPCM() {
		cfg.OutputFormat = EncodingPCM24
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = languageFromVoice(cfg.VoiceID)
	}

	clientOpts := []option.ClientOption{}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else {
		ts, err := google.DefaultTokenSource(ctx, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, WrapError(providerGoogle, fmt.Errorf("default credentials: %w", err))
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}

	service, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}

	return &Google{
		config:  cfg,
		service: service,
		logger:  cfg.Logger.With("component", "tts.google"),
	}, nil
}

// Synthesize requests LINEAR16 audio and returns it as raw PCM16.
func (g *Google) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()
	format := PCMFormat(g.config.OutputFormat)

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.config.LanguageCode,
			Name:         g.config.VoiceID,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: int64(format.SampleRate),
		},
	}

	var (
		resp    *texttospeech.SynthesizeSpeechResponse
		lastErr error
	)
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.config.RetryDelay * time.Duration(attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		resp, lastErr = g.service.Text.Synthesize(req).Context(callCtx).Do()
		cancel()
		if lastErr == nil {
			break
		}
		lastErr = g.convertError(lastErr)

		var apiErr *APIError
		if !errors.As(lastErr, &apiErr) || !apiErr.IsRetryable() {
			return nil, lastErr
		}
		g.logger.Warn("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio: %w", err))
	}
	audio = StripWAVHeader(audio)
	if len(audio) == 0 {
		return nil, WrapError(providerGoogle, ErrEmptyAudio)
	}
	latency := time.Since(start).Milliseconds()

	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", g.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    format,
		Duration:  PCMDuration(len(audio), format.SampleRate),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health lists voices for the configured language.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.service.Voices.List().LanguageCode(g.config.LanguageCode).Context(ctx).Do()
	if err != nil {
		return g.convertError(err)
	}
	return nil
}

// Close is a no-op; the generated client holds no long-lived resources.
func (g *Google) Close() error {
	return nil
}

func (g *Google) convertError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &APIError{
			StatusCode: gErr.Code,
			Message:    gErr.Message,
			Provider:   providerGoogle,
		}
	}
	return WrapError(providerGoogle, err)
}

// StripWAVHeader returns the data chunk of a RIFF/WAVE buffer, or b unchanged
// when b is not a WAV file.
func StripWAVHeader(b []byte) []byte {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return b
	}
	off := 12
	for off+8 <= len(b) {
		id := b[off : off+4]
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if bytes.Equal(id, []byte("data")) {
			end := off + size
			if end > len(b) || size == 0 {
				end = len(b)
			}
			return b[off:end]
		}
		off += size + size%2
	}
	return b[len(b):]
}

// languageFromVoice derives "en-US" from "en-US-Neural2-F".
func languageFromVoice(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// Verify Google implements Provider at compile time.
var _ Provider = (*Google)(nil)

package tts_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-emotive/pkg/tts"
)

func TestMock(t *testing.T) {
	ctx := context.Background()
	m := tts.NewMock()

	res, err := m.Synthesize(ctx, "Hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CharCount != 11 || res.Format.SampleRate != 24000 {
		t.Errorf("unexpected result %+v", res.Format)
	}
	if _, err := m.Synthesize(ctx, ""); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	m.Health(ctx)
	m.Close()

	if got := m.Texts(); len(got) != 2 || got[0] != "Hello world" {
		t.Errorf("Texts() = %q", got)
	}
	if m.CallCount("Health") != 1 || m.CallCount("Close") != 1 {
		t.Errorf("calls = %+v, closes = %d", m.Calls(), m.CallCount("Close"))
	}
}

func TestMock_Error(t *testing.T) {
	boom := errors.New("boom")
	m := tts.WithError(boom)
	if _, err := m.Synthesize(context.Background(), "Hello"); !errors.Is(err, boom) {
		t.Errorf("Synthesize error = %v", err)
	}
	if err := m.Health(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Health error = %v", err)
	}
}

func TestMock_DelayHonoursContext(t *testing.T) {
	m := tts.NewMock()
	m.Delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Synthesize(ctx, "Hello"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestDefaultVoiceSettings(t *testing.T) {
	s := tts.DefaultVoiceSettings()
	if s.Stability != 0.5 || s.SimilarityBoost != 0.75 || s.Style != 0 || !s.SpeakerBoost {
		t.Errorf("unexpected defaults %+v", s)
	}
}

func TestConfig(t *testing.T) {
	cfg := tts.DefaultConfig()
	if cfg.OutputFormat != tts.EncodingPCM24 || cfg.Timeout != tts.DefaultTimeout {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	cfg.Apply(
		tts.WithVoice("v"),
		tts.WithModel("m"),
		tts.WithTimeout(5*time.Second),
		tts.WithOutputFormat(tts.EncodingMP3),
		tts.WithLanguage("en-GB"),
		tts.WithRetry(4, time.Second),
	)
	if cfg.VoiceID != "v" || cfg.ModelID != "m" || cfg.LanguageCode != "en-GB" {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || cfg.OutputFormat != tts.EncodingMP3 {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg.MaxRetries != 4 || cfg.RetryDelay != time.Second {
		t.Errorf("retry not applied: %d %v", cfg.MaxRetries, cfg.RetryDelay)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		voice     string
		wantKey   error
		wantVoice error
	}{
		{"nothing", "", "", tts.ErrNoAPIKey, tts.ErrNoAPIKey},
		{"key only", "k", "", nil, tts.ErrNoVoiceID},
		{"key and voice", "k", "v", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tts.DefaultConfig()
			cfg.APIKey = tt.key
			cfg.VoiceID = tt.voice
			if err := cfg.Validate(); !errors.Is(err, tt.wantKey) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantKey)
			}
			if err := cfg.ValidateWithVoice(); !errors.Is(err, tt.wantVoice) {
				t.Errorf("ValidateWithVoice() = %v, want %v", err, tt.wantVoice)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status       int
		retryable    bool
		unauthorized bool
	}{
		{400, false, false},
		{401, false, true},
		{403, false, true},
		{429, true, false},
		{500, true, false},
		{503, true, false},
	}
	for _, tt := range tests {
		err := &tts.APIError{StatusCode: tt.status}
		if err.IsRetryable() != tt.retryable {
			t.Errorf("%d: IsRetryable = %v", tt.status, err.IsRetryable())
		}
		if err.IsUnauthorized() != tt.unauthorized {
			t.Errorf("%d: IsUnauthorized = %v", tt.status, err.IsUnauthorized())
		}
	}

	err := &tts.APIError{StatusCode: 400, Code: "invalid_input", Message: "bad request", Provider: "elevenlabs"}
	if got := err.Error(); got != "tts [elevenlabs]: HTTP 400 (invalid_input): bad request" {
		t.Errorf("Error() = %q", got)
	}
}

func TestProviderError(t *testing.T) {
	if tts.WrapError("x", nil) != nil {
		t.Error("wrapping nil should be nil")
	}
	inner := errors.New("connection failed")
	err := tts.WrapError("elevenlabs", inner)
	if err.Error() != "tts [elevenlabs]: connection failed" {
		t.Errorf("Error() = %q", err)
	}
	var pe *tts.ProviderError
	if !errors.As(err, &pe) || pe.Provider != "elevenlabs" || !errors.Is(err, inner) {
		t.Errorf("unexpected wrapping: %#v", err)
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("requires providers", func(t *testing.T) {
		if _, err := tts.NewChain(); !errors.Is(err, tts.ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("first provider wins", func(t *testing.T) {
		a, b := tts.NewMock(), tts.NewMock()
		chain, _ := tts.NewChain(a, b)
		if _, err := chain.Synthesize(ctx, "Hello"); err != nil {
			t.Fatal(err)
		}
		if a.CallCount("Synthesize") != 1 || b.CallCount("Synthesize") != 0 {
			t.Error("second provider should not be asked")
		}
	})

	t.Run("prefers the provider that last worked", func(t *testing.T) {
		flaky := tts.NewMock()
		down := true
		flaky.SynthesizeFunc = func(_ context.Context, text string) (*tts.AudioResult, error) {
			if down {
				return nil, &tts.APIError{StatusCode: 503}
			}
			return tts.Silence(text), nil
		}
		backup := tts.NewMock()
		chain, _ := tts.NewChain(flaky, backup)

		chain.Synthesize(ctx, "one")
		down = false
		chain.Synthesize(ctx, "two")

		if got := backup.Texts(); len(got) != 2 {
			t.Errorf("backup should serve both phrases, got %q", got)
		}
		if flaky.CallCount("Synthesize") != 1 {
			t.Errorf("flaky provider asked %d times", flaky.CallCount("Synthesize"))
		}
	})

	t.Run("rejected credentials disable a provider", func(t *testing.T) {
		bad := tts.WithError(&tts.APIError{StatusCode: 401, Provider: "openai"})
		good := tts.NewMock()
		chain, _ := tts.NewChain(bad, good)

		chain.Synthesize(ctx, "one")
		chain.Synthesize(ctx, "two")
		if bad.CallCount("Synthesize") != 1 {
			t.Errorf("disabled provider asked %d times", bad.CallCount("Synthesize"))
		}
	})

	t.Run("all fail", func(t *testing.T) {
		chain, _ := tts.NewChain(tts.WithError(errors.New("fail 1")), tts.WithError(errors.New("fail 2")))
		_, err := chain.Synthesize(ctx, "Hello")
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) || len(chainErr.Errors) != 2 {
			t.Fatalf("expected ChainError with 2 errors, got %v", err)
		}
		if !strings.Contains(err.Error(), "fail 2") {
			t.Errorf("Error() = %q", err)
		}
	})

	t.Run("health and close", func(t *testing.T) {
		a, b := tts.WithError(errors.New("down")), tts.NewMock()
		chain, _ := tts.NewChain(a, b)
		if err := chain.Health(ctx); err != nil {
			t.Errorf("one healthy provider is enough: %v", err)
		}
		if err := chain.Close(); err != nil {
			t.Fatal(err)
		}
		if a.CallCount("Close") != 1 || b.CallCount("Close") != 1 {
			t.Error("every provider should be closed")
		}

		dead, _ := tts.NewChain(tts.WithError(errors.New("down")))
		if err := dead.Health(ctx); err == nil {
			t.Error("expected unhealthy chain")
		}
	})
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	inner := tts.NewMock()
	c := tts.NewCache(inner, 2)

	for _, text := range []string{"happy", "happy", "sad", "happy"} {
		if _, err := c.Synthesize(ctx, text); err != nil {
			t.Fatal(err)
		}
	}
	if got := inner.Texts(); len(got) != 2 {
		t.Errorf("provider asked for %q", got)
	}
	if c.Hits() != 2 {
		t.Errorf("Hits() = %d, want 2", c.Hits())
	}

	// Third phrase evicts the oldest.
	c.Synthesize(ctx, "angry")
	c.Synthesize(ctx, "happy")
	if got := inner.Texts(); len(got) != 4 || got[3] != "happy" {
		t.Errorf("expected happy to be re-synthesized, got %q", got)
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	inner := tts.WithError(errors.New("down"))
	c := tts.NewCache(inner, 0)
	c.Synthesize(context.Background(), "hi")
	c.Synthesize(context.Background(), "hi")
	if inner.CallCount("Synthesize") != 2 || c.Hits() != 0 {
		t.Error("failures must not be cached")
	}
}

func TestSampleRateFromEncoding(t *testing.T) {
	tests := []struct {
		encoding tts.Encoding
		rate     int
	}{
		{tts.EncodingPCM16, 16000},
		{tts.EncodingPCM22, 22050},
		{tts.EncodingPCM24, 24000},
		{tts.EncodingPCM44, 44100},
		{tts.EncodingMP3, 44100},
	}
	for _, tt := range tests {
		if got := tts.SampleRateFromEncoding(tt.encoding); got != tt.rate {
			t.Errorf("%s: got %d, want %d", tt.encoding, got, tt.rate)
		}
	}
}

func TestEncodingIsPCM(t *testing.T) {
	for _, enc := range []tts.Encoding{tts.EncodingPCM16, tts.EncodingPCM22, tts.EncodingPCM24, tts.EncodingPCM44} {
		if !enc.IsPCM() {
			t.Errorf("%s should be PCM", enc)
		}
	}
	if tts.EncodingMP3.IsPCM() {
		t.Error("mp3 should not be PCM")
	}
}

func TestPCMDuration(t *testing.T) {
	if d := tts.PCMDuration(48000, 24000); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := tts.PCMDuration(100, 0); d != 0 {
		t.Errorf("expected 0 for zero rate, got %v", d)
	}
}

func TestSilence(t *testing.T) {
	res := tts.Silence("Hello there!")
	if !res.IsPCM() || len(res.Audio) != 12*960 || res.Duration != 240*time.Millisecond {
		t.Errorf("unexpected silence %d bytes, %v", len(res.Audio), res.Duration)
	}
}

func TestResolveElevenLabsVoice(t *testing.T) {
	if got := tts.ResolveElevenLabsVoice("rachel"); got != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("unexpected id %s", got)
	}
	if got := tts.ResolveElevenLabsVoice("raw-id"); got != "raw-id" {
		t.Errorf("raw ids should pass through, got %s", got)
	}
}

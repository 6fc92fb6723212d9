package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-emotive/internal/httpc"
)

// httpProvider is the request plumbing shared by the JSON-over-HTTP speech
// APIs: POST with retry, read the audio body, time it.
type httpProvider struct {
	name       string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	delay      time.Duration

	// parseError turns a non-2xx response into an *APIError.
	parseError func(*http.Response) error
}

func newHTTPProvider(name string, cfg *Config, parseError func(*http.Response) error) *httpProvider {
	return &httpProvider{
		name:       name,
		client:     httpc.NewClient(cfg.Timeout),
		logger:     cfg.Logger.With("component", "tts."+name),
		maxRetries: cfg.MaxRetries,
		delay:      cfg.RetryDelay,
		parseError: parseError,
	}
}

// synthesize posts payload and returns the response body as audio in format.
func (h *httpProvider) synthesize(ctx context.Context, url string, payload interface{}, headers map[string]string, text string, format AudioFormat) (*AudioResult, error) {
	start := time.Now()
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(h.name, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := h.post(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, h.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(h.name, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(h.name, ErrEmptyAudio)
	}

	res := &AudioResult{
		Audio:     audio,
		Format:    format,
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if format.Encoding.IsPCM() {
		res.Duration = PCMDuration(len(audio), format.SampleRate)
	}
	h.logger.Debug("synthesized", "chars", res.CharCount, "bytes", len(audio), "latency_ms", res.LatencyMs)
	return res, nil
}

// post retries 429 and 5xx answers with linear backoff.
func (h *httpProvider) post(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(httpc.Backoff(h.delay, attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(h.name, fmt.Errorf("create request: %w", err))
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = WrapError(h.name, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}
		if !httpc.Retryable(resp.StatusCode) {
			return resp, nil
		}
		lastErr = h.parseError(resp)
		resp.Body.Close()
		h.logger.Warn("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
	}
	return nil, lastErr
}

// health GETs url and expects 200.
func (h *httpProvider) health(ctx context.Context, url string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WrapError(h.name, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return WrapError(h.name, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return h.parseError(resp)
	}
	return nil
}

func (h *httpProvider) close() error {
	h.client.CloseIdleConnections()
	return nil
}

// readAPIError builds an APIError from resp. decode pulls the message and
// code out of the provider's JSON error body; the raw body is the message
// when it cannot.
func readAPIError(provider string, resp *http.Response, decode func([]byte) (message, code string, ok bool)) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: string(body)}
	if msg, code, ok := decode(body); ok {
		apiErr.Message, apiErr.Code = msg, code
	}
	return apiErr
}

package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-emotive/internal/httpc"
)

const providerDeepFace = "deepface"

// DeepFace classifies regions through a DeepFace HTTP service
// (deepface/api: POST /analyze with actions=["emotion"]).
type DeepFace struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewDeepFace creates a DeepFace service client.
func NewDeepFace(opts ...Option) (*DeepFace, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &DeepFace{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "emotion.deepface"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

type deepFaceRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
	DetectorBackend  string   `json:"detector_backend,omitempty"`
	Silent           bool     `json:"silent"`
}

type deepFaceFace struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion"`
	FaceConfidence  float64            `json:"face_confidence"`
}

type deepFaceResponse struct {
	Results []deepFaceFace `json:"results"`
	Error   string         `json:"error"`
}

// Analyze uploads region as a base64 JPEG and returns the first face's
// emotion distribution. DeepFace may report several faces for one person
// crop; only the first is used.
func (d *DeepFace) Analyze(ctx context.Context, region image.Image) (*Result, error) {
	if region == nil || region.Bounds().Empty() {
		return nil, ErrEmptyRegion
	}

	start := time.Now()

	b64, err := EncodeImageBase64(region, d.config.JPEGQuality)
	if err != nil {
		return nil, WrapError(providerDeepFace, fmt.Errorf("encode region: %w", err))
	}

	body, err := json.Marshal(deepFaceRequest{
		Img:              "data:image/jpeg;base64," + b64,
		Actions:          []string{"emotion"},
		EnforceDetection: d.config.EnforceDetection,
		DetectorBackend:  d.config.DetectorBackend,
		Silent:           true,
	})
	if err != nil {
		return nil, WrapError(providerDeepFace, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := d.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, d.parseError(resp)
	}

	var out deepFaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerDeepFace, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Results) == 0 {
		if d.config.EnforceDetection {
			return nil, WrapError(providerDeepFace, ErrNoFace)
		}
		return nil, WrapError(providerDeepFace, ErrEmptyScores)
	}

	face := out.Results[0]
	res, err := NewResult(face.Emotion)
	if err != nil {
		return nil, WrapError(providerDeepFace, err)
	}
	if face.DominantEmotion != "" {
		res = res.WithDominant(face.DominantEmotion)
	}

	d.logger.Debug("analyzed region",
		"dominant", res.Dominant,
		"score", res.Score,
		"faces", len(out.Results),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return res, nil
}

// Health checks that the service answers.
func (d *DeepFace) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/", nil)
	if err != nil {
		return WrapError(providerDeepFace, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return WrapError(providerDeepFace, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return d.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (d *DeepFace) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func (d *DeepFace) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(httpc.Backoff(d.config.RetryDelay, attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/analyze", bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerDeepFace, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerDeepFace, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if httpc.Retryable(resp.StatusCode) {
			lastErr = d.parseError(resp)
			resp.Body.Close()
			d.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (d *DeepFace) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := strings.TrimSpace(string(body))
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	// DeepFace reports "Face could not be detected" as a 400.
	if d.config.EnforceDetection && strings.Contains(strings.ToLower(message), "face could not be detected") {
		return WrapError(providerDeepFace, ErrNoFace)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerDeepFace,
	}
}

// Verify DeepFace implements Classifier at compile time.
var _ Classifier = (*DeepFace)(nil)

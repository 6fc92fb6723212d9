package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const providerOpenAI = "openai"

const openAIInstructions = `You rate the facial expression of the person in the image.
Return a score from 0 to 100 for every emotion so that the scores sum to 100.
Set face_visible to false when no human face can be seen; still return your best estimate.`

// visionScores is the structured output requested from the vision model.
type visionScores struct {
	FaceVisible bool    `json:"face_visible" jsonschema:"description=Whether a human face is visible in the image"`
	Angry       float64 `json:"angry"`
	Disgust     float64 `json:"disgust"`
	Fear        float64 `json:"fear"`
	Happy       float64 `json:"happy"`
	Sad         float64 `json:"sad"`
	Surprise    float64 `json:"surprise"`
	Neutral     float64 `json:"neutral"`
}

func (v visionScores) distribution() map[string]float64 {
	return map[string]float64{
		Angry:    v.Angry,
		Disgust:  v.Disgust,
		Fear:     v.Fear,
		Happy:    v.Happy,
		Sad:      v.Sad,
		Surprise: v.Surprise,
		Neutral:  v.Neutral,
	}
}

var visionScoresSchema = GenerateSchema[visionScores]()

// OpenAI classifies regions with a vision-capable model through the
// Responses API and a strict JSON schema.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates a vision-model classifier.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = ""
	cfg.Model = "gpt-4o-mini"
	cfg.Timeout = 10 * time.Second
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{
		config: cfg,
		client: &client,
		logger: cfg.Logger.With("component", "emotion.openai"),
	}, nil
}

// Analyze asks the model for a per-label score distribution.
func (o *OpenAI) Analyze(ctx context.Context, region image.Image) (*Result, error) {
	if region == nil || region.Bounds().Empty() {
		return nil, ErrEmptyRegion
	}

	start := time.Now()

	b64, err := EncodeImageBase64(region, o.config.JPEGQuality)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("encode region: %w", err))
	}

	content := responses.ResponseInputMessageContentListParam{
		{OfInputText: &responses.ResponseInputTextParam{Text: "Rate the emotions of this person."}},
		{OfInputImage: &responses.ResponseInputImageParam{
			ImageURL: openai.String("data:image/jpeg;base64," + b64),
			Detail:   responses.ResponseInputImageDetailLow,
		}},
	}

	params := responses.ResponseNewParams{
		Model:           o.config.Model,
		MaxOutputTokens: openai.Int(200),
		Instructions:    openai.String(openAIInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EmotionScores",
					Schema:      visionScoresSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Facial emotion score distribution"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}

	res, err := parseVisionScores(resp.OutputText(), o.config.EnforceDetection)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}

	o.logger.Debug("analyzed region",
		"dominant", res.Dominant,
		"score", res.Score,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return res, nil
}

// parseVisionScores decodes the model's JSON output into a Result.
func parseVisionScores(text string, enforce bool) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var scores visionScores
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &scores); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if enforce && !scores.FaceVisible {
		return nil, ErrNoFace
	}

	dist := scores.distribution()
	total := 0.0
	for _, s := range dist {
		total += s
	}
	if total == 0 {
		return nil, ErrEmptyScores
	}
	return NewResult(dist)
}

// Close is a no-op; the SDK client holds no long-lived resources.
func (o *OpenAI) Close() error {
	return nil
}

// Verify OpenAI implements Classifier at compile time.
var _ Classifier = (*OpenAI)(nil)

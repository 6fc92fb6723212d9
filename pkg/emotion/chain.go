package emotion

import (
	"context"
	"image"
	"log/slog"
)

// Chain implements Classifier by trying multiple classifiers in order.
// The first successful classifier wins; if all fail, returns a ChainError.
type Chain struct {
	classifiers []Classifier
	logger      *slog.Logger
}

// NewChain creates a classifier chain. At least one classifier is required.
func NewChain(classifiers ...Classifier) (*Chain, error) {
	if len(classifiers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		classifiers: classifiers,
		logger:      slog.Default().With("component", "emotion.chain"),
	}, nil
}

// NewChainWithLogger creates a classifier chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, classifiers ...Classifier) (*Chain, error) {
	chain, err := NewChain(classifiers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "emotion.chain")
	return chain, nil
}

// Analyze tries each classifier until one succeeds.
func (c *Chain) Analyze(ctx context.Context, region image.Image) (*Result, error) {
	var errs []error

	for i, cls := range c.classifiers {
		res, err := cls.Analyze(ctx, region)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback classifier succeeded", "classifier_index", i)
			}
			return res, nil
		}

		errs = append(errs, err)
		c.logger.Warn("classifier failed, trying next",
			"classifier_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Close closes all classifiers.
func (c *Chain) Close() error {
	var lastErr error
	for _, cls := range c.classifiers {
		if err := cls.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Verify Chain implements Classifier at compile time.
var _ Classifier = (*Chain)(nil)

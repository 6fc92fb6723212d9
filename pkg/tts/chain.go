package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Chain falls back through providers in order. It starts each phrase with
// the provider that last succeeded, and stops asking a provider that
// rejected its API key.
type Chain struct {
	providers []Provider
	logger    *slog.Logger

	mu       sync.Mutex
	current  int
	disabled []bool
}

// NewChain needs at least one provider.
func NewChain(providers ...Provider) (*Chain, error) {
	return NewChainWithLogger(slog.Default(), providers...)
}

// NewChainWithLogger is NewChain with a caller-supplied logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		disabled:  make([]bool, len(providers)),
		logger:    logger.With("component", "tts.chain"),
	}, nil
}

// order returns provider indexes to try, preferred first.
func (c *Chain) order() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := make([]int, 0, len(c.providers))
	for n := range c.providers {
		i := (c.current + n) % len(c.providers)
		if !c.disabled[i] {
			idx = append(idx, i)
		}
	}
	return idx
}

func (c *Chain) succeeded(i int) {
	c.mu.Lock()
	c.current = i
	c.mu.Unlock()
}

func (c *Chain) disable(i int) {
	c.mu.Lock()
	c.disabled[i] = true
	c.mu.Unlock()
}

// Synthesize returns the first provider's audio that works.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	order := c.order()
	if len(order) == 0 {
		return nil, ErrProviderUnavailable
	}

	var errs []error
	for n, i := range order {
		res, err := c.providers[i].Synthesize(ctx, text)
		if err == nil {
			if n > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i)
			}
			c.succeeded(i)
			return res, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			c.logger.Warn("provider rejected credentials, disabling", "provider_index", i, "error", err)
			c.disable(i)
			continue
		}
		c.logger.Warn("provider failed, trying next", "provider_index", i, "error", err)
	}
	return nil, &ChainError{Errors: errs}
}

// Health fails only when no enabled provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, i := range c.order() {
		err := c.providers[i].Health(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("tts chain unhealthy: %w", errors.Join(errs...))
}

// Close closes every provider.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

var _ Provider = (*Chain)(nil)

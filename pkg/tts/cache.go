package tts

import (
	"context"
	"sync"
)

// DefaultCacheSize comfortably holds a phrase table.
const DefaultCacheSize = 32

// Cache remembers synthesized audio by text. Reactions repeat the same few
// phrases, so after warm-up most reactions skip the network.
type Cache struct {
	inner Provider
	size  int

	mu    sync.Mutex
	audio map[string]*AudioResult
	order []string
	hits  int
}

// NewCache wraps inner. size <= 0 uses DefaultCacheSize. Oldest entries are
// evicted first.
func NewCache(inner Provider, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{inner: inner, size: size, audio: make(map[string]*AudioResult)}
}

func (c *Cache) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	c.mu.Lock()
	if res, ok := c.audio[text]; ok {
		c.hits++
		c.mu.Unlock()
		return res, nil
	}
	c.mu.Unlock()

	res, err := c.inner.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.audio[text]; !ok {
		if len(c.order) == c.size {
			delete(c.audio, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, text)
	}
	c.audio[text] = res
	return res, nil
}

// Hits counts phrases served without calling the provider.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *Cache) Health(ctx context.Context) error { return c.inner.Health(ctx) }

func (c *Cache) Close() error { return c.inner.Close() }

var _ Provider = (*Cache)(nil)

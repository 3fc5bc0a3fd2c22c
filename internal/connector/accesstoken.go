package connector

import (
	"context"
	"sync"
	"time"
)

// TokenCache caches bearer credentials per merchant connector account so the
// token call is not repeated on every dispatch.
type TokenCache interface {
	Get(ctx context.Context, connector, merchantConnectorID string) (*AccessToken, error)
	Set(ctx context.Context, connector, merchantConnectorID string, tok AccessToken) error
}

type MemoryTokenCache struct {
	mu   sync.RWMutex
	toks map[string]AccessToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{toks: map[string]AccessToken{}}
}

func cacheKey(connector, merchantConnectorID string) string {
	return connector + ":" + merchantConnectorID
}

func (c *MemoryTokenCache) Get(ctx context.Context, connector, merchantConnectorID string) (*AccessToken, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.toks[cacheKey(connector, merchantConnectorID)]
	if !ok || tok.Expired(time.Now()) {
		return nil, nil
	}
	t := tok
	return &t, nil
}

func (c *MemoryTokenCache) Set(ctx context.Context, connector, merchantConnectorID string, tok AccessToken) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toks[cacheKey(connector, merchantConnectorID)] = tok
	return nil
}

package wiki

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/olgasafonova/mwapi/internal/infra"
	"github.com/olgasafonova/mwapi/metrics"
)

// tokenFetcher retrieves a fresh token of one type from the server
type tokenFetcher func(ctx context.Context, tokenType string) (string, error)

// TokenCache lazily fetches and memoizes API tokens by token type
// ("csrf", "login", "patrol", ...). Concurrent misses for the same type
// share a single fetch.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
	fetch  tokenFetcher
	dedup  *infra.RequestDeduplicator[string]
}

func newTokenCache(fetch tokenFetcher) *TokenCache {
	return &TokenCache{
		tokens: make(map[string]string),
		fetch:  fetch,
		dedup:  infra.NewRequestDeduplicator[string](),
	}
}

// Get returns the cached token of tokenType, fetching it on a miss
func (tc *TokenCache) Get(ctx context.Context, tokenType string) (string, error) {
	tc.mu.Lock()
	if token, ok := tc.tokens[tokenType]; ok {
		tc.mu.Unlock()
		return token, nil
	}
	fetch := tc.fetch
	tc.mu.Unlock()

	if fetch == nil {
		return "", ErrClientClosed
	}

	token, _, err := tc.dedup.Do(ctx, tokenType, func() (string, error) {
		token, err := fetch(ctx, tokenType)
		if err != nil {
			return "", err
		}
		metrics.TokenFetches.WithLabelValues(tokenType).Inc()

		tc.mu.Lock()
		if tc.fetch != nil {
			tc.tokens[tokenType] = token
		}
		tc.mu.Unlock()
		return token, nil
	})
	return token, err
}

// Set stores a token obtained elsewhere
func (tc *TokenCache) Set(tokenType, token string) {
	tc.mu.Lock()
	tc.tokens[tokenType] = token
	tc.mu.Unlock()
}

// Cached returns the stored token without fetching
func (tc *TokenCache) Cached(tokenType string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	token, ok := tc.tokens[tokenType]
	return token, ok
}

// Invalidate drops one token type. Absent entries are ignored.
func (tc *TokenCache) Invalidate(tokenType string) {
	tc.mu.Lock()
	delete(tc.tokens, tokenType)
	tc.mu.Unlock()
}

// Clear drops every cached token
func (tc *TokenCache) Clear() {
	tc.mu.Lock()
	clear(tc.tokens)
	tc.mu.Unlock()
}

// Len returns the number of cached tokens
func (tc *TokenCache) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.tokens)
}

// detach forgets the owning session; later misses fail with ErrClientClosed
func (tc *TokenCache) detach() {
	tc.mu.Lock()
	tc.fetch = nil
	clear(tc.tokens)
	tc.mu.Unlock()
}

// fetchToken queries meta=tokens for one token type
func (c *Client) fetchToken(ctx context.Context, tokenType string) (string, error) {
	tokens, err := c.QueryMeta(ctx, "tokens", url.Values{"type": {tokenType}})
	if err != nil {
		return "", fmt.Errorf("failed to get %s token: %w", tokenType, err)
	}
	token := getString(getMap(tokens)[tokenType+"token"])
	if token == "" {
		return "", fmt.Errorf("no %s token in response", tokenType)
	}
	return token, nil
}

package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"flight-scraper/utils"
)

// PayloadCache stores raw search payloads by key
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// CachedFetcher serves repeated searches from a PayloadCache. Cache
// failures are logged and never fail the fetch.
type CachedFetcher struct {
	next   Fetcher
	cache  PayloadCache
	logger *utils.Logger
}

// NewCachedFetcher wraps next with cache
func NewCachedFetcher(next Fetcher, cache PayloadCache, logger *utils.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, logger: logger}
}

// CacheKey derives the cache key for a request from its full URL
func CacheKey(req FetchRequest) string {
	sum := sha256.Sum256([]byte(req.FullURL()))
	return "flight-scraper:payload:" + hex.EncodeToString(sum[:])
}

func (c *CachedFetcher) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	key := CacheKey(req)

	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed: %v", err)
	} else if ok {
		c.logger.Debug("Cache hit for %s", req.FullURL())
		return body, nil
	}

	body, err = c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, body); err != nil {
		c.logger.Warn("Cache write failed: %v", err)
	}
	return body, nil
}

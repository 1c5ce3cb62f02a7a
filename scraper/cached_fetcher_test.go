package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/magiconair/properties/assert"

	"flight-scraper/utils"
)

type countingFetcher struct {
	calls int
	body  []byte
	err   error
}

func (f *countingFetcher) Fetch(context.Context, FetchRequest) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

type memoryCache struct {
	data     map[string][]byte
	getErr   error
	setCalls int
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, body []byte) error {
	m.setCalls++
	m.data[key] = body
	return nil
}

func TestCachedFetcherHitsCacheOnSecondCall(t *testing.T) {
	next := &countingFetcher{body: []byte("payload")}
	cache := &memoryCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, utils.NewNopLogger())
	req := FetchRequest{URL: "https://example.test/api", Query: map[string][]string{"depart": {"2025-07-01"}}}

	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), req)
		assert.Equal(t, err, nil)
		assert.Equal(t, string(body), "payload")
	}
	assert.Equal(t, next.calls, 1)
	assert.Equal(t, cache.setCalls, 1)
}

func TestCachedFetcherKeysByURL(t *testing.T) {
	a := FetchRequest{URL: "https://example.test/api", Query: map[string][]string{"depart": {"2025-07-01"}}}
	b := FetchRequest{URL: "https://example.test/api", Query: map[string][]string{"depart": {"2025-07-02"}}}
	if CacheKey(a) == CacheKey(b) {
		t.Error("different dates must not share a cache key")
	}
	assert.Equal(t, CacheKey(a), CacheKey(a.Clone()))
}

func TestCachedFetcherIgnoresCacheErrors(t *testing.T) {
	next := &countingFetcher{body: []byte("payload")}
	cache := &memoryCache{data: map[string][]byte{}, getErr: errors.New("redis down")}
	f := NewCachedFetcher(next, cache, utils.NewNopLogger())

	body, err := f.Fetch(context.Background(), FetchRequest{URL: "https://example.test/api"})
	assert.Equal(t, err, nil)
	assert.Equal(t, string(body), "payload")
	assert.Equal(t, next.calls, 1)
}

func TestCachedFetcherDoesNotCacheFailures(t *testing.T) {
	next := &countingFetcher{err: errors.New("timeout")}
	cache := &memoryCache{data: map[string][]byte{}}
	f := NewCachedFetcher(next, cache, utils.NewNopLogger())

	_, err := f.Fetch(context.Background(), FetchRequest{URL: "https://example.test/api"})
	if err == nil {
		t.Fatal("expected error")
	}
	assert.Equal(t, cache.setCalls, 0)
}

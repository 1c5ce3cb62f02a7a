package scraper

import (
	"errors"
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"

	"flight-scraper/models"
)

type stubPlatform struct{ name string }

func (p stubPlatform) Name() string { return p.name }

func (p stubPlatform) BuildRequest(base FetchRequest, _ models.DateWindow) FetchRequest {
	return base.Clone()
}

func (p stubPlatform) Normalize([]byte) ([]*models.FlightOffer, error) { return nil, nil }

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(stubPlatform{"booking"}, stubPlatform{"Skyscanner"})

	p, err := r.Get("BOOKING")
	assert.Equal(t, err, nil)
	assert.Equal(t, p.Name(), "booking")

	p, err = r.Get(" skyscanner ")
	assert.Equal(t, err, nil)
	assert.Equal(t, p.Name(), "Skyscanner")

	assert.Equal(t, r.Names(), []string{"booking", "skyscanner"})
}

func TestRegistryUnknownPlatform(t *testing.T) {
	r := NewRegistry(stubPlatform{"booking"})

	_, err := r.Get("kayak")
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
	if !strings.Contains(err.Error(), "booking") {
		t.Errorf("error should list available platforms: %v", err)
	}
}

func TestFetchRequestCloneIsDeep(t *testing.T) {
	base := FetchRequest{
		URL:     "https://example.test/api",
		Query:   map[string][]string{"from": {"PEK"}},
		Headers: map[string]string{"X-Test": "1"},
	}
	c := base.Clone()
	c.Query.Set("from", "PVG")
	c.Headers["X-Test"] = "2"

	assert.Equal(t, base.Query.Get("from"), "PEK")
	assert.Equal(t, base.Headers["X-Test"], "1")
}

func TestFetchRequestFullURL(t *testing.T) {
	tests := []struct {
		name string
		req  FetchRequest
		want string
	}{
		{"no query", FetchRequest{URL: "https://example.test/api"}, "https://example.test/api"},
		{"query", FetchRequest{URL: "https://example.test/api", Query: map[string][]string{"b": {"2"}, "a": {"1"}}}, "https://example.test/api?a=1&b=2"},
		{"existing query", FetchRequest{URL: "https://example.test/api?x=0", Query: map[string][]string{"a": {"1"}}}, "https://example.test/api?x=0&a=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.req.FullURL(), tt.want)
		})
	}
}

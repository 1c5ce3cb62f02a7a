package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"flight-scraper/models"
)

var (
	// ErrUnknownPlatform is returned by the registry for unregistered platform names
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrNoOffers means a payload was structurally empty (no flightOffers)
	ErrNoOffers = errors.New("no flight offers in payload")
)

// FetchRequest is everything the transport needs for one round trip
type FetchRequest struct {
	URL     string
	Query   url.Values
	Headers map[string]string
	Proxy   string // http://, https:// or socks5:// URL; empty for direct
}

// Clone returns a deep copy so per-date requests never share maps
func (r FetchRequest) Clone() FetchRequest {
	out := FetchRequest{URL: r.URL, Proxy: r.Proxy, Query: url.Values{}, Headers: map[string]string{}}
	for k, v := range r.Query {
		out.Query[k] = append([]string(nil), v...)
	}
	for k, v := range r.Headers {
		out.Headers[k] = v
	}
	return out
}

// FullURL renders URL plus encoded query
func (r FetchRequest) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + r.Query.Encode()
}

// Fetcher returns the raw body of a search request.
// Non-2xx responses come back as *HTTPError.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) ([]byte, error)
}

// Platform is one upstream provider: how to ask it for a date window and
// how to turn its payload into offers.
type Platform interface {
	Name() string
	BuildRequest(base FetchRequest, window models.DateWindow) FetchRequest
	Normalize(body []byte) ([]*models.FlightOffer, error)
}

package scraper

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/proxy"

	"flight-scraper/utils"
)

// DefaultUserAgent is sent when the request does not set one
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// HTTPError carries status/body for non-2xx responses
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

// Retryable reports whether another attempt could succeed
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout || e.StatusCode >= 500
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

type retryFunc func(ctx context.Context, maxRetries int, fn func() error, logger *utils.Logger) error

// HTTPFetcher performs plain GET requests against the search API.
// One http.Client is kept per proxy URL.
type HTTPFetcher struct {
	logger     *utils.Logger
	timeout    time.Duration
	maxRetries int
	retry      retryFunc

	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewHTTPFetcher creates a fetcher with a per-request timeout and retry budget
func NewHTTPFetcher(timeout time.Duration, maxRetries int, logger *utils.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		logger:     logger,
		timeout:    timeout,
		maxRetries: maxRetries,
		retry:      utils.RetryWithBackoff,
		clients:    make(map[string]*http.Client),
	}
}

// Fetch GETs req and returns the decoded body. 4xx responses other than
// 408/429 are not retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	client, err := f.clientFor(req.Proxy)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = f.retry(ctx, f.maxRetries, func() error {
		b, err := f.do(ctx, client, req)
		if err != nil {
			if herr, ok := err.(*HTTPError); ok && !herr.Retryable() {
				return fmt.Errorf("%w: %w", utils.ErrPermanent, herr)
			}
			return err
		}
		body = b
		return nil
	}, f.logger)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, client *http.Client, req FetchRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.FullURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", DefaultUserAgent)
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("Accept-Encoding", "gzip, br")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	f.logger.Debug("GET %s", httpReq.URL.String())
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			Method:     httpReq.Method,
			URL:        httpReq.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return body, nil
}

// decodeBody undoes Content-Encoding; setting Accept-Encoding ourselves
// turns off net/http's transparent gzip handling.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

func (f *HTTPFetcher) clientFor(proxyURL string) (*http.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[proxyURL]; ok {
		return c, nil
	}
	transport, err := newTransport(proxyURL)
	if err != nil {
		return nil, err
	}
	c := &http.Client{Timeout: f.timeout, Transport: transport}
	f.clients[proxyURL] = c
	return c, nil
}

// newTransport builds a transport for a direct, http(s) or socks5 proxy
func newTransport(proxyURL string) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		return t, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxyURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy %q: %w", u.Host, err)
		}
		t.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return t, nil
}

package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"flight-scraper/utils"
)

// BrowserFetcher loads the search URL in headless Chrome and reads the
// rendered JSON text. Used when plain HTTP requests get blocked.
type BrowserFetcher struct {
	logger     *utils.Logger
	settle     time.Duration
	timeout    time.Duration
	maxRetries int
}

// NewBrowserFetcher creates a chromedp-backed fetcher
func NewBrowserFetcher(timeout time.Duration, maxRetries int, logger *utils.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &BrowserFetcher{
		logger:     logger,
		settle:     2 * time.Second,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// newContext creates a fresh chromedp context (one browser, one tab)
func (b *BrowserFetcher) newContext(parent context.Context, req FetchRequest) (context.Context, context.CancelFunc) {
	userAgent := DefaultUserAgent
	if ua, ok := req.Headers["User-Agent"]; ok && ua != "" {
		userAgent = ua
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 900),
	)
	if req.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(req.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Fetch navigates to the full search URL and returns the page text
func (b *BrowserFetcher) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	var body []byte
	err := utils.RetryWithBackoff(ctx, b.maxRetries, func() error {
		text, err := b.load(ctx, req)
		if err != nil {
			return err
		}
		body = []byte(text)
		return nil
	}, b.logger)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (b *BrowserFetcher) load(parent context.Context, req FetchRequest) (string, error) {
	ctx, cancel := b.newContext(parent, req)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, b.timeout)
	defer cancelTimeout()

	target := req.FullURL()
	b.logger.Debug("Browser loading %s", target)

	var text string
	err := chromedp.Run(ctx,
		chromedp.Navigate(target),
		chromedp.Sleep(b.settle),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("browser navigation failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty page for %s", target)
	}
	return text, nil
}

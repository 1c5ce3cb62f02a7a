package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultServerChanURL is the ServerChan push endpoint base
const DefaultServerChanURL = "https://sc.ftqq.com"

// ServerChan pushes messages through a ServerChan send key
type ServerChan struct {
	key     string
	baseURL string
	client  *http.Client
}

// NewServerChan creates a notifier for key; baseURL defaults to DefaultServerChanURL
func NewServerChan(key, baseURL string) (*ServerChan, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("serverchan: missing SERVER_CHAN_KEY")
	}
	if baseURL == "" {
		baseURL = DefaultServerChanURL
	}
	return &ServerChan{
		key:     key,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *ServerChan) Name() string { return "serverchan" }

// Notify posts the form fields text (title) and desp (body)
func (s *ServerChan) Notify(ctx context.Context, title, body string) error {
	form := url.Values{}
	form.Set("text", title)
	form.Set("desp", body)

	endpoint := fmt.Sprintf("%s/%s.send", s.baseURL, url.PathEscape(s.key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("serverchan: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	return postForm(s.client, req, "serverchan")
}

// postForm sends req and turns a non-2xx status into an error
func postForm(client *http.Client, req *http.Request, channel string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", channel, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status=%d body=%s", channel, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

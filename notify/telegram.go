package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTelegramURL is the Bot API base
const DefaultTelegramURL = "https://api.telegram.org"

// telegramMaxLen is the Bot API limit for one message
const telegramMaxLen = 4096

// Telegram sends messages to one chat through a bot
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// NewTelegram creates a notifier; baseURL defaults to DefaultTelegramURL
func NewTelegram(token, chatID, baseURL string) (*Telegram, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram: missing TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID")
	}
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Notify calls sendMessage with the title as the first line
func (t *Telegram) Notify(ctx context.Context, title, body string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", telegramText(title, body))

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return postForm(t.client, req, "telegram")
}

func telegramText(title, body string) string {
	text := title + "\n\n" + body
	runes := []rune(text)
	if len(runes) <= telegramMaxLen {
		return text
	}
	return string(runes[:telegramMaxLen-3]) + "..."
}

package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/magiconair/properties/assert"
	"gopkg.in/gomail.v2"

	"flight-scraper/utils"
)

type capturedRequest struct {
	path        string
	contentType string
	form        url.Values
}

func newCaptureServer(t *testing.T, status int, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		*got = capturedRequest{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), form: r.PostForm}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServerChanNotify(t *testing.T) {
	var got capturedRequest
	srv := newCaptureServer(t, http.StatusOK, &got)

	n, err := NewServerChan("SCT123", srv.URL)
	assert.Equal(t, err, nil)

	err = n.Notify(context.Background(), "Cheapest flights", "line 1\nline 2")
	assert.Equal(t, err, nil)
	assert.Equal(t, got.path, "/SCT123.send")
	assert.Equal(t, got.form.Get("text"), "Cheapest flights")
	assert.Equal(t, got.form.Get("desp"), "line 1\nline 2")
	if !strings.HasPrefix(got.contentType, "application/x-www-form-urlencoded") {
		t.Errorf("content type = %q", got.contentType)
	}
}

func TestServerChanRequiresKey(t *testing.T) {
	if _, err := NewServerChan(" ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestServerChanErrorStatus(t *testing.T) {
	var got capturedRequest
	srv := newCaptureServer(t, http.StatusUnauthorized, &got)
	n, _ := NewServerChan("bad", srv.URL)

	err := n.Notify(context.Background(), "t", "b")
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTelegramNotify(t *testing.T) {
	var got capturedRequest
	srv := newCaptureServer(t, http.StatusOK, &got)

	n, err := NewTelegram("123:abc", "42", srv.URL)
	assert.Equal(t, err, nil)

	err = n.Notify(context.Background(), "Cheapest flights", "body")
	assert.Equal(t, err, nil)
	assert.Equal(t, got.path, "/bot123:abc/sendMessage")
	assert.Equal(t, got.form.Get("chat_id"), "42")
	assert.Equal(t, got.form.Get("text"), "Cheapest flights\n\nbody")
}

func TestTelegramTruncatesLongMessages(t *testing.T) {
	text := telegramText("title", strings.Repeat("é", 5000))
	assert.Equal(t, len([]rune(text)), telegramMaxLen)
	if !strings.HasSuffix(text, "...") {
		t.Error("truncated message should end with ...")
	}
}

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailNotify(t *testing.T) {
	e, err := NewEmail(EmailConfig{Host: "smtp.example.test", User: "bot@example.test", To: []string{"a@example.test", "b@example.test"}})
	assert.Equal(t, err, nil)
	assert.Equal(t, e.cfg.Port, 587)

	sender := &fakeSender{}
	e.sender = sender

	err = e.Notify(context.Background(), "Cheapest flights", "body")
	assert.Equal(t, err, nil)
	assert.Equal(t, len(sender.sent), 1)
	m := sender.sent[0]
	assert.Equal(t, m.GetHeader("From"), []string{"bot@example.test"})
	assert.Equal(t, m.GetHeader("To"), []string{"a@example.test", "b@example.test"})
	assert.Equal(t, m.GetHeader("Subject"), []string{"Cheapest flights"})

	sender.err = errors.New("smtp down")
	if err := e.Notify(context.Background(), "t", "b"); err == nil {
		t.Fatal("expected send error")
	}
}

func TestEmailRequiresHostAndRecipients(t *testing.T) {
	if _, err := NewEmail(EmailConfig{Host: "smtp.example.test"}); err == nil {
		t.Error("expected error without recipients")
	}
	if _, err := NewEmail(EmailConfig{To: []string{"a@example.test"}}); err == nil {
		t.Error("expected error without host")
	}
}

type fakeNotifier struct {
	name  string
	err   error
	calls int
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestDispatcherArchivesEvenWhenChannelsFail(t *testing.T) {
	dir := t.TempDir()
	failing := &fakeNotifier{name: "serverchan", err: errors.New("boom")}
	ok := &fakeNotifier{name: "telegram"}

	d := NewDispatcher(dir, utils.NewNopLogger(), failing, ok)
	d.now = func() time.Time { return time.Date(2025, 7, 1, 9, 30, 5, 0, time.UTC) }

	path, err := d.Dispatch(context.Background(), "Cheapest flights", "results")
	assert.Equal(t, err, nil)
	assert.Equal(t, failing.calls, 1)
	assert.Equal(t, ok.calls, 1)
	assert.Equal(t, path, filepath.Join(dir, "Cheapest_flights_20250701_093005.txt"))

	b, err := os.ReadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, string(b), "results")
	assert.Equal(t, d.Channels(), []string{"serverchan", "telegram"})
}

func TestArchiveName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Cheapest flights", "Cheapest_flights"},
		{"a/b:c", "a_b_c"},
		{"  ", "flights"},
		{"十天内最便宜航班信息", "十天内最便宜航班信息"},
	}
	for _, tt := range tests {
		assert.Equal(t, archiveName(tt.in), tt.want)
	}
}

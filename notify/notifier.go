package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flight-scraper/utils"
)

// Notifier delivers a titled text message to one channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, title, body string) error
}

// Dispatcher fans a message out to every configured notifier and always
// archives the body to a local text file. Channel failures are logged only.
type Dispatcher struct {
	notifiers  []Notifier
	archiveDir string
	logger     *utils.Logger
	now        func() time.Time
}

// NewDispatcher creates a dispatcher archiving into archiveDir
func NewDispatcher(archiveDir string, logger *utils.Logger, notifiers ...Notifier) *Dispatcher {
	if archiveDir == "" {
		archiveDir = "output"
	}
	return &Dispatcher{
		notifiers:  notifiers,
		archiveDir: archiveDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Channels lists the names of configured notifiers
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.notifiers))
	for i, n := range d.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Dispatch notifies every channel, then writes the archive file and returns
// its path. Only an archive failure is returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, title, body string) (string, error) {
	if len(d.notifiers) == 0 {
		d.logger.Info("No notification channel enabled")
	}
	for _, n := range d.notifiers {
		d.logger.Info("Sending notification via %s", n.Name())
		if err := n.Notify(ctx, title, body); err != nil {
			d.logger.Error("Notification via %s failed: %v", n.Name(), err)
		}
	}

	path, err := d.Archive(title, body)
	if err != nil {
		return "", err
	}
	d.logger.Info("Content saved to file: %s", path)
	return path, nil
}

// Archive writes body to <dir>/<title>_<YYYYMMDD_HHMMSS>.txt
func (d *Dispatcher) Archive(title, body string) (string, error) {
	if err := os.MkdirAll(d.archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.txt", archiveName(title), d.now().Format("20060102_150405"))
	path := filepath.Join(d.archiveDir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// archiveName makes a title safe to use as a file name
func archiveName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "flights"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}

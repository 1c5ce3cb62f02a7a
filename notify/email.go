package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP settings for the email notifier
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   []string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends the message as a plain-text mail
type Email struct {
	cfg    EmailConfig
	sender mailSender
}

// NewEmail creates an SMTP notifier; From defaults to User and Port to 587
func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("email: missing SMTP_HOST / EMAIL_TO")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &Email{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}, nil
}

func (e *Email) Name() string { return "email" }

func (e *Email) message(title, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", body)
	return m
}

// Notify sends one mail to all recipients
func (e *Email) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.sender.DialAndSend(e.message(title, body)); err != nil {
		return fmt.Errorf("email: send to %s: %w", strings.Join(e.cfg.To, ", "), err)
	}
	return nil
}

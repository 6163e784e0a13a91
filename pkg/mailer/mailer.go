// Package mailer renders transactional emails and delivers them through the
// SendGrid v3 mail API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/go-resty/resty/v2"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Noop drops every message. Used when no API key is configured.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }

type SendGrid struct {
	http     *resty.Client
	from     string
	fromName string
}

var _ Sender = (*SendGrid)(nil)

func NewSendGrid(cfg config.SendgridConfig) (*SendGrid, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sendgrid api key is required")
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &SendGrid{http: httpClient, from: cfg.DefaultFrom, fromName: cfg.FromName}, nil
}

// New returns a SendGrid sender when configured, otherwise Noop.
func New(cfg config.SendgridConfig) (Sender, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	return NewSendGrid(cfg)
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: recipient is required")
	}
	payload := sgPayload{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: msg.To}}}},
		From:             sgAddress{Email: s.from, Name: s.fromName},
		Subject:          msg.Subject,
	}
	// SendGrid requires text/plain before text/html.
	if msg.Text != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/html", Value: msg.HTML})
	}
	if len(payload.Content) == 0 {
		return errors.New("mailer: message body is empty")
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v3/mail/send")
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid send failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

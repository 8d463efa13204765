// Package notify sends messages to chat webhook endpoints.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when the resolved webhook URL is unset.
// No network call is made in that case.
var ErrNotConfigured = errors.New("webhook url not configured")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Embed is the rich card attached to a notification, matching the webhook
// wire shape.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
}

// EmbedImage is the image block of an embed.
type EmbedImage struct {
	URL string `json:"url"`
}

// EmbedField is one structured field of an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedAuthor is the author block of an embed.
type EmbedAuthor struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Message is one notification to deliver.
type Message struct {
	Body  string
	Embed *Embed

	// UseLogChannel routes the message to the diagnostic webhook instead
	// of the primary one.
	UseLogChannel bool

	// MentionOnError prepends a mention token for the configured user.
	MentionOnError bool
}

type payload struct {
	Content string   `json:"content"`
	Embeds  []*Embed `json:"embeds,omitempty"`
}

// Options configures a Webhook notifier.
type Options struct {
	PrimaryURL    string
	LogURL        string
	MentionUserID string

	// Client overrides the built-in HTTP client.
	Client HTTPClient
}

// Webhook delivers messages to one of two configured webhook endpoints.
type Webhook struct {
	primaryURL    string
	logURL        string
	mentionUserID string
	client        HTTPClient
	log           *slog.Logger
}

// NewWebhook creates a Webhook notifier.
func NewWebhook(opts Options, log *slog.Logger) *Webhook {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Webhook{
		primaryURL:    opts.PrimaryURL,
		logURL:        opts.LogURL,
		mentionUserID: opts.MentionUserID,
		client:        client,
		log:           log,
	}
}

// Send posts the message to the resolved webhook endpoint. Any failure is
// logged and returned; a nil return means the message was delivered.
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	url := w.primaryURL
	if msg.UseLogChannel {
		url = w.logURL
	}
	if url == "" {
		w.log.Error("webhook url not configured", "log_channel", msg.UseLogChannel)
		return ErrNotConfigured
	}

	body := msg.Body
	if msg.MentionOnError && w.mentionUserID != "" {
		body = fmt.Sprintf("<@%s> %s", w.mentionUserID, body)
	}

	p := payload{Content: body}
	if msg.Embed != nil {
		p.Embeds = []*Embed{msg.Embed}
	}
	data, err := json.Marshal(p)
	if err != nil {
		w.log.Error("encode webhook payload", "error", err)
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		w.log.Error("create webhook request", "error", err)
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Error("send webhook", "error", err)
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.log.Error("webhook rejected", "status", resp.StatusCode)
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	w.log.Info("webhook sent", "log_channel", msg.UseLogChannel)
	return nil
}

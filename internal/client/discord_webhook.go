package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type Embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []EmbedField `json:"fields"`
	Footer    *EmbedFooter `json:"footer,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
}

type webhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// DiscordWebhook posts embeds to an incoming webhook URL.
type DiscordWebhook struct {
	http *resty.Client
	url  string
}

func NewDiscordWebhook(url string, timeout time.Duration) *DiscordWebhook {
	return &DiscordWebhook{
		http: resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
		url:  url,
	}
}

func (w *DiscordWebhook) Configured() bool {
	return w.url != ""
}

func (w *DiscordWebhook) Send(ctx context.Context, embeds ...Embed) error {
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(webhookPayload{Embeds: embeds}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("discord webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("discord webhook failed: %s", resp.Status())
	}
	return nil
}

// Package discord provides the Discord side of the bridge: the spoofed
// webhook delivery client and the gateway session used for inbound events
// and plain authenticated sends.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "tgcord/1.0 (Telegram-Discord bridge)"

// SpoofedMessage is the webhook payload. Absent optional fields are omitted
// from the wire payload, never serialized as null.
type SpoofedMessage struct {
	Content   string  `json:"content,omitempty"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty"`
}

// Embed is a minimal webhook embed: a description and/or an image.
type Embed struct {
	Description string      `json:"description,omitempty"`
	Image       *EmbedImage `json:"image,omitempty"`
}

// EmbedImage references an image by URL.
type EmbedImage struct {
	URL string `json:"url"`
}

// DeliveryError reports a failed spoofed delivery. Status is 0 when the
// request never produced a response.
type DeliveryError struct {
	Status int
	Body   string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discord: spoofed delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("discord: spoofed delivery failed: status %d: %s", e.Status, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// WebhookClient posts spoofed messages to an incoming-webhook endpoint.
type WebhookClient struct {
	url    string
	client *http.Client
}

// NewWebhookClient creates a webhook client for the given endpoint.
func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Deliver serializes the message and issues a single POST. Any non-2xx
// response or transport failure is returned as a *DeliveryError; there is
// no retry here — the fallback policy belongs to the caller.
func (c *WebhookClient) Deliver(ctx context.Context, msg *SpoofedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &DeliveryError{Status: resp.StatusCode, Body: string(respBody)}
}

package notifier

import (
	"context"
	"net/http"
	"time"

	"github.com/dghubble/sling"

	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/logger"
)

const (
	// DiscordMaxLength is the Discord message content ceiling
	DiscordMaxLength = 2000

	webhookTimeout = 10 * time.Second
)

// WebhookNotifier posts the digest to a Discord-compatible webhook
type WebhookNotifier struct {
	url       string
	maxLength int
	base      *sling.Sling
}

type webhookPayload struct {
	Content string `json:"content"`
}

type webhookError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewWebhookNotifier creates a webhook sink. A nil client gets a default
// timeout.
func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}
	return &WebhookNotifier{
		url:       url,
		maxLength: DiscordMaxLength,
		base:      sling.New().Client(client),
	}
}

// Notify posts {"content": text}. Any non-2xx status is a *DeliveryError.
func (n *WebhookNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	payload := webhookPayload{Content: fitMessage("webhook", d.Text, n.maxLength)}

	req, err := n.base.New().Post(n.url).BodyJSON(payload).Request()
	if err != nil {
		return &DeliveryError{Sink: "webhook", Err: err}
	}

	failure := new(webhookError)
	resp, err := n.base.Do(req.WithContext(ctx), nil, failure)
	if resp == nil {
		return &DeliveryError{Sink: "webhook", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A non-JSON error body leaves failure empty; the status is enough
		return &DeliveryError{Sink: "webhook", StatusCode: resp.StatusCode, Detail: failure.Message}
	}

	logger.Debug("Webhook accepted digest", logger.Fields{
		"status": resp.StatusCode,
		"length": len(payload.Content),
	})
	return nil
}

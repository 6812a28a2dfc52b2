package outbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSink POSTs outbox payloads to an external notification gateway,
// e.g. the chat-notification service. The gateway only needs to accept the
// JSON body; its behavior beyond that is out of scope here.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a new webhook sink
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, topic string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Topic", topic)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification gateway error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

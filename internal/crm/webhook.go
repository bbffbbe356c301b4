package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier posts stage moves to the CRM's inbound webhook.
type WebhookNotifier struct {
	url    string
	apiKey string
	client *http.Client
}

func NewWebhookNotifier(url, apiKey string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) MoveStage(ctx context.Context, ev StageEvent) error {
	body, err := json.Marshal(struct {
		StageEvent
		IdempotencyKey string `json:"idempotency_key"`
	}{StageEvent: ev, IdempotencyKey: ev.Key()})
	if err != nil {
		return fmt.Errorf("crm.marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crm.request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", ev.Key())
	if n.apiKey != "" {
		req.Header.Set("X-API-Key", n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm.post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 409 means the CRM already saw this key: the replay succeeded.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("crm.post: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Package delivery implements the outbound notification sinks. Both sinks
// speak to simple HTTP gateways; the real transport lives behind them.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// PushSink posts notifications to a push gateway.
type PushSink struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

var _ ports.DeliverySink = (*PushSink)(nil)

// NewPushSink registers the gateway endpoint and credentials.
func NewPushSink(gatewayURL, apiKey string) *PushSink {
	return &PushSink{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one push notification.
func (p *PushSink) Send(ctx context.Context, n domain.Notification) error {
	if p.gatewayURL == "" || p.client == nil {
		return fmt.Errorf("push sink misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"user_id": n.UserID,
		"type":    n.Type,
		"title":   n.Title,
		"body":    n.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("push gateway error: %s", resp.Status)
	}

	return nil
}

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

// EmailSink posts notifications to an email gateway. The notification's
// Recipient field selects the destination address, which lets emergency
// alerts go to a contact instead of the owning user.
type EmailSink struct {
	gatewayURL string
	apiKey     string
	sender     string
	client     *http.Client
}

var _ ports.DeliverySink = (*EmailSink)(nil)

// NewEmailSink registers the gateway endpoint, credentials and sender.
func NewEmailSink(gatewayURL, apiKey, sender string) *EmailSink {
	return &EmailSink{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     sender,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers one email notification.
func (e *EmailSink) Send(ctx context.Context, n domain.Notification) error {
	if e.gatewayURL == "" || e.client == nil {
		return fmt.Errorf("email sink misconfigured")
	}
	if n.Recipient == "" {
		return fmt.Errorf("email notification %d has no recipient", n.ID)
	}

	body, err := json.Marshal(map[string]any{
		"from":    e.sender,
		"to":      n.Recipient,
		"subject": n.Title,
		"body":    n.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("email gateway error: %s", resp.Status)
	}

	return nil
}

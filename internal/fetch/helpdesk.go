// Package fetch holds the thin clients for the two external data sources:
// the helpdesk webhook (tickets) and the service catalog URL. Both return
// raw data; all interpretation happens in the core packages.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"ticketbot/internal/domain"
	"ticketbot/internal/httpx"
)

// HelpdeskClient fetches raw ticket data from the configured webhook.
type HelpdeskClient struct {
	webhookURL string
	apiKey     string
	apiSecret  string
	httpc      *http.Client
}

func NewHelpdeskClient(webhookURL, apiKey, apiSecret string) *HelpdeskClient {
	return &HelpdeskClient{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpc:      httpx.Client(),
	}
}

type helpdeskEnvelope struct {
	ResponseCode int    `json:"response_code"`
	Message      string `json:"message"`
	Data         *struct {
		Requests []domain.Ticket `json:"requests"`
	} `json:"data"`
}

// FetchTickets posts the auth payload to the webhook and decodes the ticket
// list. Classification fields arrive blank.
func (c *HelpdeskClient) FetchTickets(ctx context.Context) ([]domain.Ticket, error) {
	payload, err := json.Marshal(map[string]string{
		"api_key":    c.apiKey,
		"api_secret": c.apiSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling helpdesk payload: %w", err)
	}

	log.Printf("fetch helpdesk url=%s", c.webhookURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating helpdesk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helpdesk request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("helpdesk HTTP error: %d", resp.StatusCode)
	}

	var envelope helpdeskEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing helpdesk response: %w", err)
	}

	if envelope.ResponseCode != http.StatusOK || envelope.Data == nil {
		if envelope.ResponseCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("helpdesk authentication failed (401): check helpdesk_api_key and helpdesk_api_secret")
		}
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("code %d", envelope.ResponseCode)
		}
		return nil, fmt.Errorf("helpdesk API error: %s", msg)
	}

	tickets := envelope.Data.Requests
	log.Printf("fetch helpdesk fetched=%d", len(tickets))
	return tickets, nil
}

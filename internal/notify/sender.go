package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"time"
)

// Sender delivers one outbound message. The fanout treats any error as a
// per-recipient failure; it never retries here.
type Sender interface {
	Send(ctx context.Context, recipient, text, mediaURL string) error
}

// e164 is the canonical international recipient format. Anything else is
// filtered out before a delivery attempt is made.
var e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

func ValidRecipient(identity string) bool {
	return e164.MatchString(identity)
}

// GatewayClient sends messages through a WhatsApp business gateway.
type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGatewayClient creates a client from WHATSAPP_GATEWAY_URL and
// WHATSAPP_GATEWAY_TOKEN. Returns nil, nil when the URL is not set; callers
// then log instead of sending (local development mode).
func NewGatewayClient() (*GatewayClient, error) {
	base := os.Getenv("WHATSAPP_GATEWAY_URL")
	if base == "" {
		return nil, nil
	}
	token := os.Getenv("WHATSAPP_GATEWAY_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("WHATSAPP_GATEWAY_TOKEN is required when WHATSAPP_GATEWAY_URL is set")
	}
	return &GatewayClient{
		baseURL: base,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type outboundMessage struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}

func (c *GatewayClient) Send(ctx context.Context, recipient, text, mediaURL string) error {
	payload, err := json.Marshal(outboundMessage{To: recipient, Body: text, MediaURL: mediaURL})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send to gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}
	return nil
}

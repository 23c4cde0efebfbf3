package twin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/piggybank/internal/security"
)

// GatewayClient registers freshly created twin accounts with the transfer
// gateway's monitored-account registry over HTTP.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

// NewGatewayClient builds a client for the gateway base URL. The timeout
// keeps a slow gateway from stalling account creation for long.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterMonitoredAccount adds the account to the gateway's registry.
// An already-registered account (409) is not an error.
func (c *GatewayClient) RegisterMonitoredAccount(ctx context.Context, accountType, identifier, accountID string) error {
	body, err := json.Marshal(map[string]string{
		"type":       accountType,
		"identifier": identifier,
		"accountId":  accountID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/accounts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cid := security.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(security.CorrelationIDHeader, cid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("register monitored account: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// already monitored
		return nil
	default:
		return fmt.Errorf("transfer gateway returned status %d", resp.StatusCode)
	}
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/piggybank/internal/security"
)

// HTTPTwinClient forwards synthesized ledger entries to the account-twin
// service's transaction intake.
type HTTPTwinClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTwinClient builds a client for the twin service base URL.
func NewHTTPTwinClient(baseURL string) *HTTPTwinClient {
	return &HTTPTwinClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// SendTransaction posts one leg of a transfer. Both a fresh intake (201) and
// an idempotent replay (200) count as delivered.
func (c *HTTPTwinClient) SendTransaction(ctx context.Context, txn TransactionRequest) error {
	body, err := json.Marshal(txn)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transactions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cid := security.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(security.CorrelationIDHeader, cid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	default:
		return fmt.Errorf("account twin returned status %d", resp.StatusCode)
	}
}

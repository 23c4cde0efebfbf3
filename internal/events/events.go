package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/piggybank/internal/money"
)

// Topics the services publish and consume. One Redis channel per topic.
const (
	TopicAccountCreated      = "piggybank.accounts.created"
	TopicAccountUpdated      = "piggybank.accounts.updated"
	TopicAccountDeleted      = "piggybank.accounts.deleted"
	TopicTransferSubmitted   = "piggybank.transfers.event"
	TopicNotificationCreated = "piggybank.notifications.created"
)

// Event type discriminators carried in the payloads.
const (
	TypeAccountCreated = "ACCOUNT_CREATED"
	TypeAccountUpdated = "ACCOUNT_UPDATED"
	TypeAccountDeleted = "ACCOUNT_DELETED"
)

// AccountCreated announces a new twin account with its opening balance.
type AccountCreated struct {
	EventType         string       `json:"eventType"`
	AccountID         string       `json:"accountId"`
	AccountType       string       `json:"accountType"`
	AccountIdentifier string       `json:"accountIdentifier"`
	Balance           money.Amount `json:"balance"`
}

// AccountUpdated announces a balance change together with the ledger entry
// that caused it.
type AccountUpdated struct {
	EventType          string       `json:"eventType"`
	AccountID          string       `json:"accountId"`
	AccountType        string       `json:"accountType"`
	AccountIdentifier  string       `json:"accountIdentifier"`
	Balance            money.Amount `json:"balance"`
	TransactionID      string       `json:"transactionId"`
	TransactionAmount  money.Amount `json:"transactionAmount"`
	TransactionType    string       `json:"transactionType"`
	TransactionPurpose string       `json:"transactionPurpose"`
	SourceAccount      string       `json:"sourceAccount,omitempty"`
	DestinationAccount string       `json:"destinationAccount,omitempty"`
}

// AccountDeleted announces that a twin account and its entries are gone.
type AccountDeleted struct {
	EventType         string `json:"eventType"`
	AccountID         string `json:"accountId"`
	AccountType       string `json:"accountType"`
	AccountIdentifier string `json:"accountIdentifier"`
}

// TransferSubmitted is the gateway's audit record of a transfer that touched
// at least one monitored account.
type TransferSubmitted struct {
	TransferID         string       `json:"transferId"`
	SourceAccount      string       `json:"sourceAccount"`
	TargetAccount      string       `json:"targetAccount"`
	Amount             money.Amount `json:"amount"`
	ValuationTimestamp string       `json:"valuationTimestamp"`
	Purpose            string       `json:"purpose"`
}

// NotificationCreated is published for every stored notification and again
// whenever one is marked read.
type NotificationCreated struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	EventType string `json:"eventType"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// DecodeAccountUpdated decodes an account-updated payload, failing closed on
// a wrong discriminator or missing required fields. Consumers drop the
// message on error instead of guessing at defaults.
func DecodeAccountUpdated(data []byte) (*AccountUpdated, error) {
	var ev AccountUpdated
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode account updated event: %w", err)
	}
	if ev.EventType != TypeAccountUpdated {
		return nil, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	if err := requireFields(map[string]string{
		"accountId":       ev.AccountID,
		"transactionType": ev.TransactionType,
		"transactionAmount.currencyCode": ev.TransactionAmount.CurrencyCode,
	}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// DecodeNotificationCreated decodes a notification payload with the same
// fail-closed policy.
func DecodeNotificationCreated(data []byte) (*NotificationCreated, error) {
	var ev NotificationCreated
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode notification event: %w", err)
	}
	if err := requireFields(map[string]string{
		"id":        ev.ID,
		"accountId": ev.AccountID,
		"message":   ev.Message,
	}); err != nil {
		return nil, err
	}
	return &ev, nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("event is missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

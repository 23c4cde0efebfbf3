package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/piggybank/internal/money"
)

func TestDecodeAccountUpdated(t *testing.T) {
	ev := AccountUpdated{
		EventType:          TypeAccountUpdated,
		AccountID:          "BankAccount:DE123",
		AccountType:        "BankAccount",
		AccountIdentifier:  "DE123",
		Balance:            money.MustParse("110 EUR"),
		TransactionID:      "f2b0f8c0-0000-0000-0000-000000000001",
		TransactionAmount:  money.MustParse("10 EUR"),
		TransactionType:    "CREDIT",
		TransactionPurpose: "rent",
		SourceAccount:      "BankAccount:DE999",
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	decoded, err := DecodeAccountUpdated(data)
	require.NoError(t, err)
	assert.Equal(t, ev.AccountID, decoded.AccountID)
	assert.True(t, ev.TransactionAmount.Equal(decoded.TransactionAmount))
	assert.Equal(t, "BankAccount:DE999", decoded.SourceAccount)
}

func TestDecodeAccountUpdatedWrongType(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"eventType": TypeAccountCreated, "accountId": "a"})
	_, err := DecodeAccountUpdated(data)
	require.Error(t, err)
}

func TestDecodeAccountUpdatedMissingFields(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"eventType": TypeAccountUpdated})
	_, err := DecodeAccountUpdated(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestDecodeAccountUpdatedMalformedJSON(t *testing.T) {
	_, err := DecodeAccountUpdated([]byte("{not json"))
	require.Error(t, err)
}

func TestDecodeNotificationCreated(t *testing.T) {
	data, _ := json.Marshal(NotificationCreated{
		ID:        "0be4f7dc-0000-0000-0000-000000000001",
		AccountID: "BankAccount:DE123",
		EventType: "BALANCE_UPDATE",
		Message:   "You just received 10 EUR",
		CreatedAt: "2024-05-01T10:00:00Z",
	})

	ev, err := DecodeNotificationCreated(data)
	require.NoError(t, err)
	assert.False(t, ev.Read)

	_, err = DecodeNotificationCreated([]byte(`{"id":"x"}`))
	require.Error(t, err)
}

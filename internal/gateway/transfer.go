package gateway

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/money"
)

// Transfer is a two-sided movement of funds between account refs. It is
// never persisted; it only exists to derive the per-account ledger entries.
type Transfer struct {
	ID                 uuid.UUID
	SourceAccount      AccountRef
	TargetAccount      AccountRef
	Amount             money.Amount
	ValuationTimestamp time.Time
	Purpose            string
}

// TransactionRequest is the ledger entry the gateway forwards to the twin
// service's transaction intake.
type TransactionRequest struct {
	ID                 string       `json:"id"`
	TransferID         string       `json:"transferId"`
	AccountID          string       `json:"accountId"`
	Amount             money.Amount `json:"amount"`
	ValuationTimestamp string       `json:"valuationTimestamp"`
	Purpose            string       `json:"purpose"`
	Type               string       `json:"type"`
	SourceAccount      string       `json:"sourceAccount"`
	DestinationAccount string       `json:"destinationAccount"`
}

// DebitLeg synthesizes the DEBIT entry against the source account. Both legs
// share the transfer id so the twin service can deduplicate replays.
func (t Transfer) DebitLeg() TransactionRequest {
	return t.leg(t.SourceAccount, "DEBIT")
}

// CreditLeg synthesizes the CREDIT entry against the target account.
func (t Transfer) CreditLeg() TransactionRequest {
	return t.leg(t.TargetAccount, "CREDIT")
}

func (t Transfer) leg(account AccountRef, legType string) TransactionRequest {
	return TransactionRequest{
		ID:                 uuid.NewString(),
		TransferID:         t.ID.String(),
		AccountID:          account.String(),
		Amount:             t.Amount,
		ValuationTimestamp: t.ValuationTimestamp.UTC().Format(time.RFC3339Nano),
		Purpose:            t.Purpose,
		Type:               legType,
		SourceAccount:      t.SourceAccount.String(),
		DestinationAccount: t.TargetAccount.String(),
	}
}

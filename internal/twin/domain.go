package twin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/money"
)

var (
	// ErrAccountExists is returned when the (type, identifier) pair is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned for lookups of unknown accounts.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionNotFound is returned for lookups of unknown transactions.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionType tags a ledger entry's direction.
type TransactionType string

const (
	// Credit increases the account balance.
	Credit TransactionType = "CREDIT"
	// Debit decreases the account balance.
	Debit TransactionType = "DEBIT"
	// Dummy is the synthetic opening-balance entry, written once at account
	// creation and never applied again.
	Dummy TransactionType = "DUMMY"
)

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	return t == Credit || t == Debit || t == Dummy
}

// IncreasesBalance reports whether an entry of this type adds to the balance.
func (t TransactionType) IncreasesBalance() bool {
	return t != Debit
}

// Account is the twin of an externally held account. It is a value type:
// balance changes produce a replacement, never an in-place mutation.
type Account struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Identifier string       `json:"identifier"`
	Balance    money.Amount `json:"balance"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// AccountID derives the deterministic account id "type:identifier".
func AccountID(accountType, identifier string) string {
	return accountType + ":" + identifier
}

// NewAccount builds an account with its opening balance.
func NewAccount(accountType, identifier string, initial money.Amount) (Account, error) {
	if strings.TrimSpace(accountType) == "" {
		return Account{}, errors.New("account type cannot be blank")
	}
	if strings.TrimSpace(identifier) == "" {
		return Account{}, errors.New("account identifier cannot be blank")
	}
	return Account{
		ID:         AccountID(accountType, identifier),
		Type:       accountType,
		Identifier: identifier,
		Balance:    initial,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Apply returns a copy of the account with the entry folded into its balance.
func (a Account) Apply(amount money.Amount, t TransactionType) (Account, error) {
	delta := amount
	if !t.IncreasesBalance() {
		delta = amount.Negate()
	}
	balance, err := a.Balance.Add(delta)
	if err != nil {
		return Account{}, fmt.Errorf("apply %s to account %s: %w", t, a.ID, err)
	}
	next := a
	next.Balance = balance
	return next, nil
}

// Transaction is one signed movement against a single account. The
// (TransferID, AccountID) pair is unique and serves as the replay key.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	TransferID         uuid.UUID       `json:"transferId"`
	AccountID          string          `json:"accountId"`
	Amount             money.Amount    `json:"amount"`
	ValuationTimestamp time.Time       `json:"valuationTimestamp"`
	Purpose            string          `json:"purpose"`
	Type               TransactionType `json:"type"`
	SourceAccount      string          `json:"sourceAccount,omitempty"`
	DestinationAccount string          `json:"destinationAccount,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// NewOpeningTransaction synthesizes the DUMMY entry recording an account's
// initial balance.
func NewOpeningTransaction(account Account) Transaction {
	now := time.Now().UTC()
	return Transaction{
		ID:                 uuid.New(),
		TransferID:         uuid.New(),
		AccountID:          account.ID,
		Amount:             account.Balance,
		ValuationTimestamp: now,
		Purpose:            "Initial balance",
		Type:               Dummy,
		CreatedAt:          now,
	}
}

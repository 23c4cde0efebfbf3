package twin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/events"
	"github.com/example/piggybank/internal/money"
)

// Publisher publishes an event on a topic. A returned error is fatal for the
// enclosing operation.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Registrar registers a new twin account with the transfer gateway's
// monitored-account registry. Registration is best-effort.
type Registrar interface {
	RegisterMonitoredAccount(ctx context.Context, accountType, identifier, accountID string) error
}

// Service implements the account-twin operations: account lifecycle and
// idempotent ledger-entry application.
type Service struct {
	store     Store
	bus       Publisher
	registrar Registrar
	logger    *slog.Logger
}

// NewService wires the service. registrar may be nil when the gateway is not
// configured.
func NewService(store Store, bus Publisher, registrar Registrar, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bus: bus, registrar: registrar, logger: logger}
}

// CreateAccount creates a twin account with its DUMMY opening entry, emits
// the created event and registers the account with the gateway. Registration
// failure is logged, never surfaced.
func (s *Service) CreateAccount(ctx context.Context, accountType, identifier string, initial money.Amount) (Account, error) {
	account, err := NewAccount(accountType, identifier, initial)
	if err != nil {
		return Account{}, err
	}

	if err := s.store.CreateAccount(ctx, account, NewOpeningTransaction(account)); err != nil {
		return Account{}, err
	}
	s.logger.Info("account created", "accountId", account.ID)

	if err := s.bus.Publish(ctx, events.TopicAccountCreated, events.AccountCreated{
		EventType:         events.TypeAccountCreated,
		AccountID:         account.ID,
		AccountType:       account.Type,
		AccountIdentifier: account.Identifier,
		Balance:           account.Balance,
	}); err != nil {
		return Account{}, err
	}

	if s.registrar != nil {
		if err := s.registrar.RegisterMonitoredAccount(ctx, account.Type, account.Identifier, account.ID); err != nil {
			s.logger.Error("failed to register account with transfer gateway",
				"accountId", account.ID, "error", err)
		}
	}

	return account, nil
}

// GetAccount returns the account by id.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	return s.store.GetAccount(ctx, id)
}

// GetAccountByTypeAndIdentifier returns the account by its natural key.
func (s *Service) GetAccountByTypeAndIdentifier(ctx context.Context, accountType, identifier string) (Account, error) {
	return s.store.GetAccountByTypeAndIdentifier(ctx, accountType, identifier)
}

// ListAccounts returns all twin accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.ListAccounts(ctx)
}

// DeleteAccount removes the account and all of its transactions, then emits
// the deleted event.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", "accountId", id)

	return s.bus.Publish(ctx, events.TopicAccountDeleted, events.AccountDeleted{
		EventType:         events.TypeAccountDeleted,
		AccountID:         account.ID,
		AccountType:       account.Type,
		AccountIdentifier: account.Identifier,
	})
}

// ApplyTransaction applies one ledger entry to its account. Replays of the
// same (transferId, accountId) pair return the stored entry with
// applied=false and emit nothing.
func (s *Service) ApplyTransaction(ctx context.Context, txn Transaction) (Transaction, bool, error) {
	if !txn.Type.Valid() {
		return Transaction{}, false, fmt.Errorf("unknown transaction type %q", txn.Type)
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	stored, account, applied, err := s.store.ApplyTransaction(ctx, txn)
	if err != nil {
		return Transaction{}, false, err
	}
	if !applied {
		s.logger.Info("transaction replayed, balance unchanged",
			"transferId", txn.TransferID, "accountId", txn.AccountID)
		return stored, false, nil
	}
	s.logger.Info("transaction applied",
		"transactionId", stored.ID, "accountId", account.ID, "type", stored.Type)

	err = s.bus.Publish(ctx, events.TopicAccountUpdated, events.AccountUpdated{
		EventType:          events.TypeAccountUpdated,
		AccountID:          account.ID,
		AccountType:        account.Type,
		AccountIdentifier:  account.Identifier,
		Balance:            account.Balance,
		TransactionID:      stored.ID.String(),
		TransactionAmount:  stored.Amount,
		TransactionType:    string(stored.Type),
		TransactionPurpose: stored.Purpose,
		SourceAccount:      stored.SourceAccount,
		DestinationAccount: stored.DestinationAccount,
	})
	if err != nil {
		return Transaction{}, false, err
	}

	return stored, true, nil
}

// GetTransaction returns one ledger entry by id.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// ListTransactionsByAccount returns one page of an account's entries plus the
// total count.
func (s *Service) ListTransactionsByAccount(ctx context.Context, accountID string, page, size int) ([]Transaction, int64, error) {
	return s.store.ListTransactionsByAccount(ctx, accountID, page, size)
}

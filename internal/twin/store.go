package twin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/piggybank/internal/money"
)

// Store is the twin service's persistence boundary.
type Store interface {
	CreateAccount(ctx context.Context, account Account, opening Transaction) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByTypeAndIdentifier(ctx context.Context, accountType, identifier string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// ApplyTransaction persists the entry and the resulting balance in one
	// storage transaction serialized per account. When the (transferId,
	// accountId) pair already exists it returns the stored entry and the
	// current account with applied=false.
	ApplyTransaction(ctx context.Context, txn Transaction) (Transaction, Account, bool, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string, page, size int) ([]Transaction, int64, error)
}

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            TEXT PRIMARY KEY,
    type          TEXT NOT NULL,
    identifier    TEXT NOT NULL,
    balance_value NUMERIC NOT NULL,
    currency_code TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    UNIQUE (type, identifier)
);

CREATE TABLE IF NOT EXISTS transactions (
    id                  UUID PRIMARY KEY,
    transfer_id         UUID NOT NULL,
    account_id          TEXT NOT NULL REFERENCES accounts(id),
    amount_value        NUMERIC NOT NULL,
    currency_code       TEXT NOT NULL,
    valuation_timestamp TIMESTAMPTZ NOT NULL,
    purpose             TEXT NOT NULL,
    type                TEXT NOT NULL,
    source_account      TEXT,
    destination_account TEXT,
    created_at          TIMESTAMPTZ NOT NULL,
    UNIQUE (transfer_id, account_id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, created_at);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables and indexes when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure twin schema: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account Account, opening Transaction) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.BeginTx(queryCtx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin create account: %w", err)
	}
	defer tx.Rollback(queryCtx)

	_, err = tx.Exec(queryCtx, `
        INSERT INTO accounts (id, type, identifier, balance_value, currency_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, account.ID, account.Type, account.Identifier,
		account.Balance.Value.String(), account.Balance.CurrencyCode, account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("account %s: %w", account.ID, ErrAccountExists)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if err := insertTransaction(queryCtx, tx, opening); err != nil {
		return err
	}

	if err := tx.Commit(queryCtx); err != nil {
		return fmt.Errorf("commit create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (Account, error) {
	return s.scanAccount(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) GetAccountByTypeAndIdentifier(ctx context.Context, accountType, identifier string) (Account, error) {
	return s.scanAccount(ctx, `WHERE type = $1 AND identifier = $2`, accountType, identifier)
}

func (s *PostgresStore) scanAccount(ctx context.Context, where string, args ...any) (Account, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.pool.QueryRow(queryCtx, `
        SELECT id, type, identifier, balance_value::text, currency_code, created_at
        FROM accounts `+where, args...)
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]Account, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(queryCtx, `
        SELECT id, type, identifier, balance_value::text, currency_code, created_at
        FROM accounts ORDER BY created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.BeginTx(queryCtx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete account: %w", err)
	}
	defer tx.Rollback(queryCtx)

	// transactions reference the account, so they go first
	if _, err := tx.Exec(queryCtx, `DELETE FROM transactions WHERE account_id = $1`, id); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}

	tag, err := tx.Exec(queryCtx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	if err := tx.Commit(queryCtx); err != nil {
		return fmt.Errorf("commit delete account: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplyTransaction(ctx context.Context, txn Transaction) (Transaction, Account, bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.BeginTx(queryCtx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Account{}, false, fmt.Errorf("begin apply transaction: %w", err)
	}
	defer tx.Rollback(queryCtx)

	// Serialize the read-compute-write sequence per account row.
	row := tx.QueryRow(queryCtx, `
        SELECT id, type, identifier, balance_value::text, currency_code, created_at
        FROM accounts WHERE id = $1 FOR UPDATE
    `, txn.AccountID)
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, Account{}, false, ErrAccountNotFound
		}
		return Transaction{}, Account{}, false, fmt.Errorf("lock account: %w", err)
	}

	if err := insertTransaction(queryCtx, tx, txn); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The (transferId, accountId) constraint is the idempotency
			// signal: abandon the write and return what is stored.
			_ = tx.Rollback(queryCtx)
			return s.replay(ctx, txn.TransferID, txn.AccountID)
		}
		return Transaction{}, Account{}, false, err
	}

	updated, err := account.Apply(txn.Amount, txn.Type)
	if err != nil {
		return Transaction{}, Account{}, false, err
	}

	_, err = tx.Exec(queryCtx, `
        UPDATE accounts SET balance_value = $1, currency_code = $2 WHERE id = $3
    `, updated.Balance.Value.String(), updated.Balance.CurrencyCode, updated.ID)
	if err != nil {
		return Transaction{}, Account{}, false, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(queryCtx); err != nil {
		return Transaction{}, Account{}, false, fmt.Errorf("commit apply transaction: %w", err)
	}
	return txn, updated, true, nil
}

func (s *PostgresStore) replay(ctx context.Context, transferID uuid.UUID, accountID string) (Transaction, Account, bool, error) {
	existing, err := s.findByTransferAndAccount(ctx, transferID, accountID)
	if err != nil {
		return Transaction{}, Account{}, false, err
	}
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return Transaction{}, Account{}, false, err
	}
	return existing, account, false, nil
}

func (s *PostgresStore) findByTransferAndAccount(ctx context.Context, transferID uuid.UUID, accountID string) (Transaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.pool.QueryRow(queryCtx, selectTransaction+`
        WHERE transfer_id = $1 AND account_id = $2
    `, transferID.String(), accountID)
	txn, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, fmt.Errorf("get transaction by transfer: %w", err)
	}
	return txn, nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.pool.QueryRow(queryCtx, selectTransaction+` WHERE id = $1`, id.String())
	txn, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

func (s *PostgresStore) ListTransactionsByAccount(ctx context.Context, accountID string, page, size int) ([]Transaction, int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int64
	err := s.pool.QueryRow(queryCtx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := s.pool.Query(queryCtx, selectTransaction+`
        WHERE account_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, accountID, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, total, rows.Err()
}

const selectTransaction = `
        SELECT id::text, transfer_id::text, account_id, amount_value::text, currency_code,
               valuation_timestamp, purpose, type, source_account, destination_account, created_at
        FROM transactions`

func insertTransaction(ctx context.Context, tx pgx.Tx, txn Transaction) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO transactions (
            id, transfer_id, account_id, amount_value, currency_code,
            valuation_timestamp, purpose, type, source_account, destination_account, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, txn.ID.String(), txn.TransferID.String(), txn.AccountID,
		txn.Amount.Value.String(), txn.Amount.CurrencyCode,
		txn.ValuationTimestamp, txn.Purpose, string(txn.Type),
		nullable(txn.SourceAccount), nullable(txn.DestinationAccount), txn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return err
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAccountRow(row scannable) (Account, error) {
	var (
		account Account
		value   string
	)
	if err := row.Scan(&account.ID, &account.Type, &account.Identifier,
		&value, &account.Balance.CurrencyCode, &account.CreatedAt); err != nil {
		return Account{}, err
	}
	amount, err := money.Parse(value + " " + account.Balance.CurrencyCode)
	if err != nil {
		return Account{}, err
	}
	account.Balance = amount
	return account, nil
}

func scanTransactionRow(row scannable) (Transaction, error) {
	var (
		txn              Transaction
		id, transferID   string
		value, txnType   string
		source, dest     *string
	)
	if err := row.Scan(&id, &transferID, &txn.AccountID, &value, &txn.Amount.CurrencyCode,
		&txn.ValuationTimestamp, &txn.Purpose, &txnType, &source, &dest, &txn.CreatedAt); err != nil {
		return Transaction{}, err
	}

	var err error
	if txn.ID, err = uuid.Parse(id); err != nil {
		return Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if txn.TransferID, err = uuid.Parse(transferID); err != nil {
		return Transaction{}, fmt.Errorf("parse transfer id: %w", err)
	}
	amount, err := money.Parse(value + " " + txn.Amount.CurrencyCode)
	if err != nil {
		return Transaction{}, err
	}
	txn.Amount = amount
	txn.Type = TransactionType(txnType)
	if source != nil {
		txn.SourceAccount = *source
	}
	if dest != nil {
		txn.DestinationAccount = *dest
	}
	return txn, nil
}

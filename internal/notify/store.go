package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Store persists notifications and subscriptions.
type Store interface {
	CreateNotification(ctx context.Context, n Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (Notification, error)
	ListNotifications(ctx context.Context, filter NotificationFilter, page, size int) ([]Notification, int64, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (Notification, error)

	CreateSubscription(ctx context.Context, s Subscription) (Subscription, bool, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	ListSubscriptionsByAccount(ctx context.Context, accountID string) ([]Subscription, error)
	ActiveSubscriptions(ctx context.Context, accountID string, eventType NotificationEventType) ([]Subscription, error)
	DeactivateSubscription(ctx context.Context, id uuid.UUID) error
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	AccountID  string // empty matches all accounts
	UnreadOnly bool
}

const notifySchema = `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_account
	ON notifications(account_id, created_at);

CREATE TABLE IF NOT EXISTS subscriptions (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);

-- at most one active subscription per (account, event type); replays of the
-- create path hit this constraint and resolve to the existing row
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_active
	ON subscriptions(account_id, event_type) WHERE active = 1;
`

// SQLiteStore is the Store implementation on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, notifySchema); err != nil {
		return fmt.Errorf("ensure notification schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateNotification(ctx context.Context, n Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, account_id, event_type, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.AccountID, string(n.EventType), n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNotification(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, event_type, message, read, created_at
		FROM notifications WHERE id = ?`, id.String())
	return scanNotification(row)
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, filter NotificationFilter, page, size int) ([]Notification, int64, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.AccountID != "" {
		where += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.UnreadOnly {
		where += " AND read = 0"
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := "SELECT id, account_id, event_type, message, read, created_at FROM notifications " +
		where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE read = 0").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips the read flag. Marking an already-read notification is a
// no-op that still returns the stored row.
func (s *SQLiteStore) MarkRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id.String())
	if err != nil {
		return Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return Notification{}, ErrNotificationNotFound
	}
	return s.GetNotification(ctx, id)
}

// CreateSubscription inserts an active subscription. When an active one for
// the same (account, event type) already exists the unique index fires and
// the existing row is returned instead, with created=false.
func (s *SQLiteStore) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, account_id, event_type, active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sub.ID.String(), sub.AccountID, string(sub.EventType), sub.Active, sub.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			existing, lookupErr := s.activeSubscription(ctx, sub.AccountID, sub.EventType)
			if lookupErr != nil {
				return Subscription{}, false, lookupErr
			}
			return existing, false, nil
		}
		return Subscription{}, false, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, true, nil
}

func (s *SQLiteStore) activeSubscription(ctx context.Context, accountID string, eventType NotificationEventType) (Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, event_type, active, created_at
		FROM subscriptions WHERE account_id = ? AND event_type = ? AND active = 1`,
		accountID, string(eventType))
	return scanSubscription(row)
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT id, account_id, event_type, active, created_at
		FROM subscriptions ORDER BY created_at, id`)
}

func (s *SQLiteStore) ListSubscriptionsByAccount(ctx context.Context, accountID string) ([]Subscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT id, account_id, event_type, active, created_at
		FROM subscriptions WHERE account_id = ? ORDER BY created_at, id`, accountID)
}

func (s *SQLiteStore) ActiveSubscriptions(ctx context.Context, accountID string, eventType NotificationEventType) ([]Subscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT id, account_id, event_type, active, created_at
		FROM subscriptions
		WHERE account_id = ? AND event_type = ? AND active = 1`,
		accountID, string(eventType))
}

// DeactivateSubscription soft-deletes an active subscription. An unknown id
// and an already-inactive one both report not found, so a repeated delete is
// visible to the caller instead of silently succeeding.
func (s *SQLiteStore) DeactivateSubscription(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE subscriptions SET active = 0 WHERE id = ? AND active = 1", id.String())
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *SQLiteStore) querySubscriptions(ctx context.Context, query string, args ...any) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	var id string
	var eventType string
	var createdAt time.Time
	err := row.Scan(&id, &n.AccountID, &eventType, &n.Message, &n.Read, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return Notification{}, fmt.Errorf("scan notification: %w", err)
	}
	if n.ID, err = uuid.Parse(id); err != nil {
		return Notification{}, fmt.Errorf("scan notification id: %w", err)
	}
	n.EventType = NotificationEventType(eventType)
	n.CreatedAt = createdAt.UTC()
	return n, nil
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var sub Subscription
	var id string
	var eventType string
	var createdAt time.Time
	err := row.Scan(&id, &sub.AccountID, &eventType, &sub.Active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrSubscriptionNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("scan subscription: %w", err)
	}
	if sub.ID, err = uuid.Parse(id); err != nil {
		return Subscription{}, fmt.Errorf("scan subscription id: %w", err)
	}
	sub.EventType = NotificationEventType(eventType)
	sub.CreatedAt = createdAt.UTC()
	return sub, nil
}

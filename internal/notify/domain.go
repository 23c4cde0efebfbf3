package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/events"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// NotificationEventType names what a subscription listens for and what a
// stored notification was about.
type NotificationEventType string

const (
	EventBalanceUpdate  NotificationEventType = "BALANCE_UPDATE"
	EventAccountCreated NotificationEventType = "ACCOUNT_CREATED"
	EventAccountDeleted NotificationEventType = "ACCOUNT_DELETED"
)

func (t NotificationEventType) Valid() bool {
	switch t {
	case EventBalanceUpdate, EventAccountCreated, EventAccountDeleted:
		return true
	}
	return false
}

// Notification is one message produced for an account. It is created unread;
// the read flag is its only mutable state and the transition is one-way.
type Notification struct {
	ID        uuid.UUID
	AccountID string
	EventType NotificationEventType
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Subscription opts an account into one notification event type. It is
// deactivated rather than deleted so history survives.
type Subscription struct {
	ID        uuid.UUID
	AccountID string
	EventType NotificationEventType
	Active    bool
	CreatedAt time.Time
}

// BuildMessage renders the human-readable text for a balance update. The
// wording depends on the ledger entry type; optional clauses are included
// only when the corresponding field is non-blank.
func BuildMessage(ev events.AccountUpdated) string {
	amount := ev.TransactionAmount.Value.String()
	currency := ev.TransactionAmount.CurrencyCode

	var b strings.Builder
	switch ev.TransactionType {
	case "CREDIT":
		fmt.Fprintf(&b, "You just received %s %s", amount, currency)
		if strings.TrimSpace(ev.SourceAccount) != "" {
			fmt.Fprintf(&b, " from %s", ev.SourceAccount)
		}
	case "DEBIT":
		fmt.Fprintf(&b, "You just sent %s %s", amount, currency)
		if strings.TrimSpace(ev.DestinationAccount) != "" {
			fmt.Fprintf(&b, " to %s", ev.DestinationAccount)
		}
	default:
		fmt.Fprintf(&b, "Your balance was updated by %s %s", amount, currency)
		return b.String()
	}
	if strings.TrimSpace(ev.TransactionPurpose) != "" {
		fmt.Fprintf(&b, " for: %s", ev.TransactionPurpose)
	}
	return b.String()
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/events"
	"github.com/example/piggybank/internal/httputil"
)

// Publisher publishes an event on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Service turns account-updated events into notifications, gated by the
// account's active subscriptions, and manages the subscription lifecycle.
type Service struct {
	store  Store
	bus    Publisher
	logger *slog.Logger
}

func NewService(store Store, bus Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bus: bus, logger: logger}
}

// HandleAccountUpdated consumes one account-updated payload. Events for
// accounts without an active BALANCE_UPDATE subscription are dropped; a
// matched event produces exactly one stored notification regardless of how
// many subscriptions matched.
func (s *Service) HandleAccountUpdated(ctx context.Context, data []byte) error {
	ev, err := events.DecodeAccountUpdated(data)
	if err != nil {
		return err
	}

	subs, err := s.store.ActiveSubscriptions(ctx, ev.AccountID, EventBalanceUpdate)
	if err != nil {
		return fmt.Errorf("look up subscriptions: %w", err)
	}
	if len(subs) == 0 {
		s.logger.Debug("no active subscription, dropping event",
			"accountId", ev.AccountID)
		return nil
	}

	notification := Notification{
		ID:        uuid.New(),
		AccountID: ev.AccountID,
		EventType: EventBalanceUpdate,
		Message:   BuildMessage(*ev),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if err := s.publishNotification(ctx, notification); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}

	s.logger.Info("notification created",
		"notificationId", notification.ID, "accountId", ev.AccountID)
	return nil
}

// MarkRead flips the read flag and republishes the notification so live
// listeners see the change. Republish failure does not undo the flip.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	notification, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if err := s.publishNotification(ctx, notification); err != nil {
		s.logger.Error("republish after mark-read failed",
			"notificationId", id, "error", err)
	}
	return notification, nil
}

func (s *Service) publishNotification(ctx context.Context, n Notification) error {
	return s.bus.Publish(ctx, events.TopicNotificationCreated, events.NotificationCreated{
		ID:        n.ID.String(),
		AccountID: n.AccountID,
		EventType: string(n.EventType),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: httputil.FormatTimestamp(n.CreatedAt),
	})
}

// CreateSubscription is idempotent: when an active subscription for the same
// (account, event type) already exists it is returned unchanged.
func (s *Service) CreateSubscription(ctx context.Context, accountID string, eventType NotificationEventType) (Subscription, bool, error) {
	if strings.TrimSpace(accountID) == "" {
		return Subscription{}, false, errors.New("accountId cannot be blank")
	}
	if !eventType.Valid() {
		return Subscription{}, false, fmt.Errorf("unknown event type %q", eventType)
	}

	sub := Subscription{
		ID:        uuid.New(),
		AccountID: accountID,
		EventType: eventType,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	return s.store.CreateSubscription(ctx, sub)
}

// DeactivateSubscription soft-deletes the subscription.
func (s *Service) DeactivateSubscription(ctx context.Context, id uuid.UUID) error {
	return s.store.DeactivateSubscription(ctx, id)
}

func (s *Service) GetNotification(ctx context.Context, id uuid.UUID) (Notification, error) {
	return s.store.GetNotification(ctx, id)
}

func (s *Service) ListNotifications(ctx context.Context, filter NotificationFilter, page, size int) ([]Notification, int64, error) {
	return s.store.ListNotifications(ctx, filter, page, size)
}

func (s *Service) CountUnread(ctx context.Context) (int64, error) {
	return s.store.CountUnread(ctx)
}

func (s *Service) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}

func (s *Service) ListSubscriptionsByAccount(ctx context.Context, accountID string) ([]Subscription, error) {
	return s.store.ListSubscriptionsByAccount(ctx, accountID)
}

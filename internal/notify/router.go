package notify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/security"
)

// Dependencies carries everything the notification HTTP surface needs.
type Dependencies struct {
	Logger *slog.Logger

	Notifications interface {
		ListNotifications(ctx context.Context, filter NotificationFilter, page, size int) ([]Notification, int64, error)
		CountUnread(ctx context.Context) (int64, error)
		MarkRead(ctx context.Context, id uuid.UUID) (Notification, error)
	}
	Subscriptions interface {
		CreateSubscription(ctx context.Context, accountID string, eventType NotificationEventType) (Subscription, bool, error)
		ListSubscriptions(ctx context.Context) ([]Subscription, error)
		ListSubscriptionsByAccount(ctx context.Context, accountID string) ([]Subscription, error)
		DeactivateSubscription(ctx context.Context, id uuid.UUID) error
	}

	Auditor      httputil.Auditor
	RateLimiter  *security.RedisTokenBucket
	MaxBodyBytes int64
}

// NewRouter builds the notification-service HTTP API.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	createSubscriptionV, err := security.NewJSONSchemaValidator(createSubscriptionSchema)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(httputil.RequestLogger(deps.Logger))
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	if deps.RateLimiter != nil {
		r.Use(security.RateLimitMiddleware(deps.RateLimiter, rateLimitKeyByIP))
	}
	if deps.Auditor != nil {
		r.Use(httputil.AuditMiddleware(deps.Auditor))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", handleListNotifications(deps, NotificationFilter{}))
		r.Get("/unread", handleListNotifications(deps, NotificationFilter{UnreadOnly: true}))
		r.Get("/account/{accountID}", handleListNotifications(deps, NotificationFilter{}))
		r.Get("/account/{accountID}/unread", handleListNotifications(deps, NotificationFilter{UnreadOnly: true}))
		r.Get("/count", handleUnreadCount(deps))
		r.Post("/{notificationID}/read", handleMarkRead(deps))
	})

	r.Route("/api/subscriptions", func(r chi.Router) {
		r.With(createSubscriptionV.Middleware).Post("/", handleCreateSubscription(deps))
		r.Get("/", handleListSubscriptions(deps))
		r.Get("/account/{accountID}", handleListSubscriptions(deps))
		r.Delete("/{subscriptionID}", handleDeactivateSubscription(deps))
	})

	return r, nil
}

func rateLimitKeyByIP(r *http.Request) string {
	return r.RemoteAddr
}

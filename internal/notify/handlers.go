package notify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/security"
)

type notificationResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	EventType string `json:"eventType"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

type subscriptionResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	EventType string `json:"eventType"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
}

type createSubscriptionRequest struct {
	AccountID string `json:"accountId"`
	EventType string `json:"eventType"`
}

func toNotificationResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		AccountID: n.AccountID,
		EventType: string(n.EventType),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: httputil.FormatTimestamp(n.CreatedAt),
	}
}

func toSubscriptionResponse(s Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        s.ID.String(),
		AccountID: s.AccountID,
		EventType: string(s.EventType),
		Active:    s.Active,
		CreatedAt: httputil.FormatTimestamp(s.CreatedAt),
	}
}

func handleListNotifications(deps Dependencies, filter NotificationFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := filter
		if id := chi.URLParam(r, "accountID"); id != "" {
			f.AccountID = id
		}
		page, size := httputil.ParsePageParams(r)

		items, total, err := deps.Notifications.ListNotifications(r.Context(), f, page, size)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toNotificationResponse(n))
		}
		httputil.WriteJSON(w, r, http.StatusOK, httputil.NewPage(out, page, size, total))
	}
}

func handleUnreadCount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Notifications.CountUnread(r.Context())
		if err != nil {
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, map[string]int64{"count": count})
	}
}

func handleMarkRead(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error",
				"notification id must be a UUID")
			return
		}

		if _, err := deps.Notifications.MarkRead(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				security.WriteJSONError(w, r, http.StatusNotFound, "notification_not_found")
				return
			}
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCreateSubscription(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		sub, created, err := deps.Subscriptions.CreateSubscription(r.Context(),
			req.AccountID, NotificationEventType(req.EventType))
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		status := http.StatusCreated
		if !created {
			status = http.StatusOK
		}
		httputil.WriteJSON(w, r, status, toSubscriptionResponse(sub))
	}
}

func handleListSubscriptions(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			subs []Subscription
			err  error
		)
		if id := chi.URLParam(r, "accountID"); id != "" {
			subs, err = deps.Subscriptions.ListSubscriptionsByAccount(r.Context(), id)
		} else {
			subs, err = deps.Subscriptions.ListSubscriptions(r.Context())
		}
		if err != nil {
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}

		out := make([]subscriptionResponse, 0, len(subs))
		for _, s := range subs {
			out = append(out, toSubscriptionResponse(s))
		}
		httputil.WriteJSON(w, r, http.StatusOK, out)
	}
}

func handleDeactivateSubscription(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "subscriptionID"))
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error",
				"subscription id must be a UUID")
			return
		}

		if err := deps.Subscriptions.DeactivateSubscription(r.Context(), id); err != nil {
			if errors.Is(err, ErrSubscriptionNotFound) {
				security.WriteJSONError(w, r, http.StatusNotFound, "subscription_not_found")
				return
			}
			security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

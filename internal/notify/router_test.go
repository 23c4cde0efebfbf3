package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *Service, *SQLiteStore) {
	t.Helper()
	svc, store, _ := newTestService(t)

	h, err := NewRouter(Dependencies{
		Notifications: svc,
		Subscriptions: svc,
		MaxBodyBytes:  1 << 20,
	})
	require.NoError(t, err)
	return h, svc, store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type pageResponse struct {
	Content       []notificationResponse `json:"content"`
	Page          int                    `json:"page"`
	Size          int                    `json:"size"`
	TotalElements int64                  `json:"totalElements"`
}

func TestListNotificationsEndpoint(t *testing.T) {
	h, _, store := newTestRouter(t)
	ctx := context.Background()

	read := sampleNotification("IBAN:DE1")
	require.NoError(t, store.CreateNotification(ctx, read))
	_, err := store.MarkRead(ctx, read.ID)
	require.NoError(t, err)
	require.NoError(t, store.CreateNotification(ctx, sampleNotification("IBAN:DE1")))
	require.NoError(t, store.CreateNotification(ctx, sampleNotification("IBAN:DE2")))

	rec := doJSON(t, h, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Content, 3)
	assert.EqualValues(t, 3, page.TotalElements)

	rec = doJSON(t, h, http.MethodGet, "/api/notifications/unread", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Content, 2)

	rec = doJSON(t, h, http.MethodGet, "/api/notifications/account/IBAN:DE2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Content, 1)
	assert.Equal(t, "IBAN:DE2", page.Content[0].AccountID)

	rec = doJSON(t, h, http.MethodGet, "/api/notifications/account/IBAN:DE1/unread", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Content, 1)
}

func TestListNotificationsPagingParams(t *testing.T) {
	h, _, store := newTestRouter(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateNotification(context.Background(), sampleNotification("IBAN:DE1")))
	}

	rec := doJSON(t, h, http.MethodGet, "/api/notifications?page=1&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page pageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Content, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.EqualValues(t, 5, page.TotalElements)
}

func TestUnreadCountEndpoint(t *testing.T) {
	h, _, store := newTestRouter(t)
	require.NoError(t, store.CreateNotification(context.Background(), sampleNotification("IBAN:DE1")))

	rec := doJSON(t, h, http.MethodGet, "/api/notifications/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 1}`, rec.Body.String())
}

func TestMarkReadEndpoint(t *testing.T) {
	h, _, store := newTestRouter(t)
	n := sampleNotification("IBAN:DE1")
	require.NoError(t, store.CreateNotification(context.Background(), n))

	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", n.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/notifications/1e8f5c1e-0000-0000-0000-000000000000/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/notifications/not-a-uuid/read", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	h, _, _ := newTestRouter(t)

	body := map[string]any{"accountId": "IBAN:DE1", "eventType": "BALANCE_UPDATE"}
	rec := doJSON(t, h, http.MethodPost, "/api/subscriptions", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created subscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Active)

	// replay resolves to the existing subscription
	rec = doJSON(t, h, http.MethodPost, "/api/subscriptions", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var replay subscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replay))
	assert.Equal(t, created.ID, replay.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/subscriptions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []subscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	assert.Len(t, subs, 1)

	rec = doJSON(t, h, http.MethodGet, "/api/subscriptions/account/IBAN:DE1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	assert.Len(t, subs, 1)

	rec = doJSON(t, h, http.MethodDelete, "/api/subscriptions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/subscriptions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSubscriptionSchemaValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/subscriptions", map[string]any{"accountId": "IBAN:DE1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/subscriptions", map[string]any{
		"accountId": "IBAN:DE1", "eventType": "SOMETHING_ELSE",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

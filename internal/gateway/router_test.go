package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *Registry, *fakePublisher, *fakeTwinClient) {
	t.Helper()
	svc, reg, bus, twin := newTestGateway(t)

	h, err := NewRouter(Dependencies{
		Registry:     reg,
		Transfers:    svc,
		MaxBodyBytes: 1 << 20,
	})
	require.NoError(t, err)
	return h, reg, bus, twin
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

func TestRegisterAccountEndpoint(t *testing.T) {
	h, reg, _, _ := newTestRouter(t)

	body := map[string]any{"type": "IBAN", "identifier": "DE1"}
	rec := doJSON(t, h, http.MethodPost, "/api/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, reg.IsMonitored(AccountRef{Type: "IBAN", Identifier: "DE1"}))

	rec = doJSON(t, h, http.MethodPost, "/api/accounts", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterAccountValidation(t *testing.T) {
	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/accounts", map[string]any{"type": "IBAN"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/accounts", map[string]any{
		"type": "IBAN", "identifier": "DE1", "unexpected": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMonitoredAccountsEndpoint(t *testing.T) {
	h, reg, _, _ := newTestRouter(t)
	reg.Add(AccountRef{Type: "IBAN", Identifier: "DE1", AccountID: "IBAN:DE1"})

	rec := doJSON(t, h, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var refs []AccountRef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
	require.Len(t, refs, 1)
	assert.Equal(t, "IBAN:DE1", refs[0].AccountID)
}

func TestRemoveAccountEndpoint(t *testing.T) {
	h, reg, _, _ := newTestRouter(t)
	reg.Add(AccountRef{Type: "IBAN", Identifier: "DE1"})

	body := map[string]any{"type": "IBAN", "identifier": "DE1"}
	rec := doJSON(t, h, http.MethodDelete, "/api/accounts", body)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, reg.IsMonitored(AccountRef{Type: "IBAN", Identifier: "DE1"}))

	rec = doJSON(t, h, http.MethodDelete, "/api/accounts", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitTransferEndpoint(t *testing.T) {
	h, reg, bus, twin := newTestRouter(t)
	reg.Add(AccountRef{Type: "IBAN", Identifier: "DE2"})

	body := map[string]any{
		"sourceAccount":      map[string]any{"type": "IBAN", "identifier": "DE1"},
		"targetAccount":      map[string]any{"type": "IBAN", "identifier": "DE2"},
		"amount":             map[string]any{"value": "10.50", "currencyCode": "EUR"},
		"valuationTimestamp": "2024-05-01T10:15:00Z",
		"purpose":            "rent",
	}

	rec := doJSON(t, h, http.MethodPost, "/api/transfers", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Len(t, bus.published, 1)
	require.Len(t, twin.sent, 1)
	assert.Equal(t, "CREDIT", twin.sent[0].Type)
	assert.Equal(t, "IBAN:DE2", twin.sent[0].AccountID)
}

func TestSubmitTransferUnmonitoredReturnsCreated(t *testing.T) {
	h, _, bus, twin := newTestRouter(t)

	body := map[string]any{
		"sourceAccount":      map[string]any{"type": "IBAN", "identifier": "DE1"},
		"targetAccount":      map[string]any{"type": "IBAN", "identifier": "DE2"},
		"amount":             map[string]any{"value": 25, "currencyCode": "EUR"},
		"valuationTimestamp": "2024-05-01T10:15:00Z",
	}

	rec := doJSON(t, h, http.MethodPost, "/api/transfers", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, bus.published)
	assert.Empty(t, twin.sent)
}

func TestSubmitTransferRejectsLooseTimestamp(t *testing.T) {
	h, _, _, _ := newTestRouter(t)

	body := map[string]any{
		"sourceAccount":      map[string]any{"type": "IBAN", "identifier": "DE1"},
		"targetAccount":      map[string]any{"type": "IBAN", "identifier": "DE2"},
		"amount":             map[string]any{"value": "10", "currencyCode": "EUR"},
		"valuationTimestamp": "2024-05-01T10:15",
	}

	rec := doJSON(t, h, http.MethodPost, "/api/transfers", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTransferSchemaValidation(t *testing.T) {
	h, _, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/transfers", map[string]any{
		"sourceAccount": map[string]any{"type": "IBAN", "identifier": "DE1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

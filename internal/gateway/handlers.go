package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/money"
	"github.com/example/piggybank/internal/security"
)

type accountRefPayload struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	AccountID  string `json:"accountId,omitempty"`
}

type transferRequest struct {
	ID                 string            `json:"id"`
	SourceAccount      accountRefPayload `json:"sourceAccount"`
	TargetAccount      accountRefPayload `json:"targetAccount"`
	Amount             money.Amount      `json:"amount"`
	ValuationTimestamp string            `json:"valuationTimestamp"`
	Purpose            string            `json:"purpose"`
}

func handleRegisterAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRefPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		ref, err := NewAccountRef(req.Type, req.Identifier)
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		ref.AccountID = req.AccountID

		if !deps.Registry.Add(ref) {
			security.WriteJSONError(w, r, http.StatusConflict, "account_already_monitored")
			return
		}
		httputil.WriteJSON(w, r, http.StatusCreated, ref)
	}
}

func handleListAccounts(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs := deps.Registry.List()
		httputil.WriteJSON(w, r, http.StatusOK, refs)
	}
}

func handleRemoveAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRefPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		ref, err := NewAccountRef(req.Type, req.Identifier)
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		if !deps.Registry.Remove(ref) {
			security.WriteJSONError(w, r, http.StatusNotFound, "account_not_monitored")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSubmitTransfer(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		transfer, err := req.toDomain()
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		if err := deps.Transfers.ProcessTransfer(r.Context(), transfer); err != nil {
			deps.Logger.Error("transfer processing failed",
				"transferId", transfer.ID, "error", err)
			security.WriteJSONError(w, r, http.StatusInternalServerError, "transfer_failed")
			return
		}

		httputil.WriteJSON(w, r, http.StatusCreated, map[string]string{
			"transferId": transfer.ID.String(),
		})
	}
}

func (req transferRequest) toDomain() (Transfer, error) {
	var t Transfer
	var err error

	if req.ID != "" {
		if t.ID, err = uuid.Parse(req.ID); err != nil {
			return Transfer{}, err
		}
	} else {
		t.ID = uuid.New()
	}
	if t.SourceAccount, err = NewAccountRef(req.SourceAccount.Type, req.SourceAccount.Identifier); err != nil {
		return Transfer{}, err
	}
	t.SourceAccount.AccountID = req.SourceAccount.AccountID
	if t.TargetAccount, err = NewAccountRef(req.TargetAccount.Type, req.TargetAccount.Identifier); err != nil {
		return Transfer{}, err
	}
	t.TargetAccount.AccountID = req.TargetAccount.AccountID
	if t.Amount, err = money.New(req.Amount.Value, req.Amount.CurrencyCode); err != nil {
		return Transfer{}, err
	}
	if t.ValuationTimestamp, err = httputil.ParseTimestamp(req.ValuationTimestamp); err != nil {
		return Transfer{}, err
	}
	t.Purpose = req.Purpose
	return t, nil
}

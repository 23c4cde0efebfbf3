package twin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/money"
	"github.com/example/piggybank/internal/security"
)

// maxEmbeddedTransactions bounds the ?includeTransactions= embed on account
// fetches; the by-account transactions endpoint serves anything longer.
const maxEmbeddedTransactions = 1000

type amountPayload = money.Amount

type createAccountRequest struct {
	Type       string        `json:"type"`
	Identifier string        `json:"identifier"`
	Balance    amountPayload `json:"balance"`
}

type accountResponse struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	Identifier   string                `json:"identifier"`
	Balance      amountPayload         `json:"balance"`
	CreatedAt    string                `json:"createdAt"`
	Transactions []transactionResponse `json:"transactions,omitempty"`
}

type transactionResponse struct {
	ID                 string        `json:"id"`
	TransferID         string        `json:"transferId"`
	AccountID          string        `json:"accountId"`
	Amount             amountPayload `json:"amount"`
	ValuationTimestamp string        `json:"valuationTimestamp"`
	Purpose            string        `json:"purpose"`
	Type               string        `json:"type"`
	SourceAccount      string        `json:"sourceAccount,omitempty"`
	DestinationAccount string        `json:"destinationAccount,omitempty"`
	CreatedAt          string        `json:"createdAt"`
}

type applyTransactionRequest struct {
	ID                 string        `json:"id"`
	TransferID         string        `json:"transferId"`
	AccountID          string        `json:"accountId"`
	Amount             amountPayload `json:"amount"`
	ValuationTimestamp string        `json:"valuationTimestamp"`
	Purpose            string        `json:"purpose"`
	Type               string        `json:"type"`
	SourceAccount      string        `json:"sourceAccount"`
	DestinationAccount string        `json:"destinationAccount"`
}

func toAccountResponse(a Account) accountResponse {
	return accountResponse{
		ID:         a.ID,
		Type:       a.Type,
		Identifier: a.Identifier,
		Balance:    a.Balance,
		CreatedAt:  httputil.FormatTimestamp(a.CreatedAt),
	}
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:                 t.ID.String(),
		TransferID:         t.TransferID.String(),
		AccountID:          t.AccountID,
		Amount:             t.Amount,
		ValuationTimestamp: httputil.FormatTimestamp(t.ValuationTimestamp),
		Purpose:            t.Purpose,
		Type:               string(t.Type),
		SourceAccount:      t.SourceAccount,
		DestinationAccount: t.DestinationAccount,
		CreatedAt:          httputil.FormatTimestamp(t.CreatedAt),
	}
}

func handleCreateAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		balance, err := money.New(req.Balance.Value, req.Balance.CurrencyCode)
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		account, err := deps.Accounts.CreateAccount(r.Context(), req.Type, req.Identifier, balance)
		if err != nil {
			if errors.Is(err, ErrAccountExists) {
				security.WriteJSONError(w, r, http.StatusConflict, "account_exists")
				return
			}
			writeDomainError(w, r, err)
			return
		}

		httputil.WriteJSON(w, r, http.StatusCreated, toAccountResponse(account))
	}
}

func handleGetAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "accountID")

		account, err := deps.Accounts.GetAccount(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		resp := toAccountResponse(account)
		if include, _ := strconv.ParseBool(r.URL.Query().Get("includeTransactions")); include {
			// the embedded list is capped; clients wanting the full history
			// page through /api/transactions/by-account/{id}
			txns, _, err := deps.Transactions.ListTransactionsByAccount(r.Context(), id, 0, maxEmbeddedTransactions)
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			resp.Transactions = make([]transactionResponse, 0, len(txns))
			for _, t := range txns {
				resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
			}
		}

		httputil.WriteJSON(w, r, http.StatusOK, resp)
	}
}

func handleGetAccountByNaturalKey(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountType := r.URL.Query().Get("type")
		identifier := r.URL.Query().Get("identifier")
		if accountType == "" || identifier == "" {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error",
				"type and identifier query parameters are required")
			return
		}

		account, err := deps.Accounts.GetAccountByTypeAndIdentifier(r.Context(), accountType, identifier)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, toAccountResponse(account))
	}
}

func handleListAccounts(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := deps.Accounts.ListAccounts(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		out := make([]accountResponse, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, toAccountResponse(a))
		}
		httputil.WriteJSON(w, r, http.StatusOK, out)
	}
}

func handleGetBalance(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := deps.Accounts.GetAccount(r.Context(), chi.URLParam(r, "accountID"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, account.Balance)
	}
}

func handleDeleteAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Accounts.DeleteAccount(r.Context(), chi.URLParam(r, "accountID")); err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleApplyTransaction(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		txn, err := req.toDomain()
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		applied, wasNew, err := deps.Transactions.ApplyTransaction(r.Context(), txn)
		if err != nil {
			// a missing account is the caller's error, not ours
			if errors.Is(err, ErrAccountNotFound) || errors.Is(err, money.ErrCurrencyMismatch) {
				security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error", err.Error())
				return
			}
			writeDomainError(w, r, err)
			return
		}

		status := http.StatusCreated
		if !wasNew {
			status = http.StatusOK
		}
		httputil.WriteJSON(w, r, status, toTransactionResponse(applied))
	}
}

func (req applyTransactionRequest) toDomain() (Transaction, error) {
	var txn Transaction
	var err error

	if req.ID != "" {
		if txn.ID, err = uuid.Parse(req.ID); err != nil {
			return Transaction{}, errors.New("id must be a UUID")
		}
	}
	if txn.TransferID, err = uuid.Parse(req.TransferID); err != nil {
		return Transaction{}, errors.New("transferId must be a UUID")
	}
	if txn.Amount, err = money.New(req.Amount.Value, req.Amount.CurrencyCode); err != nil {
		return Transaction{}, err
	}
	if txn.ValuationTimestamp, err = httputil.ParseTimestamp(req.ValuationTimestamp); err != nil {
		return Transaction{}, err
	}
	// valuation time is the client's claim; creation time is ours
	txn.CreatedAt = time.Now().UTC()

	txn.AccountID = req.AccountID
	txn.Purpose = req.Purpose
	txn.Type = TransactionType(req.Type)
	txn.SourceAccount = req.SourceAccount
	txn.DestinationAccount = req.DestinationAccount
	return txn, nil
}

func handleGetTransaction(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "transactionID"))
		if err != nil {
			security.WriteJSONErrorMessage(w, r, http.StatusBadRequest, "validation_error",
				"transaction id must be a UUID")
			return
		}

		txn, err := deps.Transactions.GetTransaction(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		httputil.WriteJSON(w, r, http.StatusOK, toTransactionResponse(txn))
	}
}

func handleListTransactionsByAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size := httputil.ParsePageParams(r)

		txns, total, err := deps.Transactions.ListTransactionsByAccount(
			r.Context(), chi.URLParam(r, "accountID"), page, size)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		out := make([]transactionResponse, 0, len(txns))
		for _, t := range txns {
			out = append(out, toTransactionResponse(t))
		}
		httputil.WriteJSON(w, r, http.StatusOK, httputil.NewPage(out, page, size, total))
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		security.WriteJSONError(w, r, http.StatusNotFound, "account_not_found")
	case errors.Is(err, ErrTransactionNotFound):
		security.WriteJSONError(w, r, http.StatusNotFound, "transaction_not_found")
	default:
		security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

package twin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/money"
	"github.com/example/piggybank/internal/security"
)

// Dependencies carries everything the twin HTTP surface needs.
type Dependencies struct {
	Logger *slog.Logger

	Accounts interface {
		CreateAccount(ctx context.Context, accountType, identifier string, initial money.Amount) (Account, error)
		GetAccount(ctx context.Context, id string) (Account, error)
		GetAccountByTypeAndIdentifier(ctx context.Context, accountType, identifier string) (Account, error)
		ListAccounts(ctx context.Context) ([]Account, error)
		DeleteAccount(ctx context.Context, id string) error
	}
	Transactions interface {
		ApplyTransaction(ctx context.Context, txn Transaction) (Transaction, bool, error)
		GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
		ListTransactionsByAccount(ctx context.Context, accountID string, page, size int) ([]Transaction, int64, error)
	}

	Auditor      httputil.Auditor
	RateLimiter  *security.RedisTokenBucket
	MaxBodyBytes int64
}

// NewRouter builds the account-twin HTTP API.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	createAccountV, err := security.NewJSONSchemaValidator(createAccountSchema)
	if err != nil {
		return nil, err
	}
	applyTransactionV, err := security.NewJSONSchemaValidator(applyTransactionSchema)
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

	r.Route("/api/accounts", func(r chi.Router) {
		r.With(createAccountV.Middleware).Post("/", handleCreateAccount(deps))
		r.Get("/", handleListAccounts(deps))
		r.Get("/by-type-and-identifier", handleGetAccountByNaturalKey(deps))
		r.Get("/{accountID}", handleGetAccount(deps))
		r.Get("/{accountID}/balance", handleGetBalance(deps))
		r.Delete("/{accountID}", handleDeleteAccount(deps))
	})

	r.Route("/api/transactions", func(r chi.Router) {
		r.With(applyTransactionV.Middleware).Post("/", handleApplyTransaction(deps))
		r.Get("/{transactionID}", handleGetTransaction(deps))
		r.Get("/by-account/{accountID}", handleListTransactionsByAccount(deps))
	})

	return r, nil
}

func rateLimitKeyByIP(r *http.Request) string {
	return r.RemoteAddr
}

package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/piggybank/internal/httputil"
	"github.com/example/piggybank/internal/security"
)

// Dependencies carries everything the gateway HTTP surface needs.
type Dependencies struct {
	Logger *slog.Logger

	Registry  *Registry
	Transfers interface {
		ProcessTransfer(ctx context.Context, transfer Transfer) error
	}

	Auditor      httputil.Auditor
	RateLimiter  *security.RedisTokenBucket
	MaxBodyBytes int64
}

// NewRouter builds the transfer-gateway HTTP API.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	registerAccountV, err := security.NewJSONSchemaValidator(registerAccountSchema)
	if err != nil {
		return nil, err
	}
	transferV, err := security.NewJSONSchemaValidator(transferSchema)
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
		r.With(registerAccountV.Middleware).Post("/", handleRegisterAccount(deps))
		r.Get("/", handleListAccounts(deps))
		r.With(registerAccountV.Middleware).Delete("/", handleRemoveAccount(deps))
	})

	r.Route("/api/transfers", func(r chi.Router) {
		r.With(transferV.Middleware).Post("/", handleSubmitTransfer(deps))
	})

	return r, nil
}

func rateLimitKeyByIP(r *http.Request) string {
	return r.RemoteAddr
}

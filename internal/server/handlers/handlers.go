// Package handlers contains HTTP handlers for the API server.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"talentbridge/internal/mailer"
	"talentbridge/internal/notify"
	"talentbridge/internal/payment"
	"talentbridge/internal/store"
	"talentbridge/internal/throttle"
	"talentbridge/pkg/api"
)

// StoreFactory combines the interfaces needed for the handlers to function.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.UserStore
	store.JobStore
	store.ApplicationStore
	store.ContractStore
	store.NotificationStore
	store.ScoutStore
	store.ConversationStore
}

// CredentialVerifier is the identity-provider surface consumed by the login
// handler. The provider is external; the core trusts its claims verbatim.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*store.User, error)
}

// Config holds the handler-level settings extracted from the app config.
type Config struct {
	AdminEmail string
	Currency   string
	JWTSecret  string
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store    StoreFactory
	gateway  payment.Gateway
	mail     mailer.Sender
	notifier *notify.Sink
	payments *throttle.Limiter
	logins   *throttle.Limiter
	verifier CredentialVerifier
	logger   *slog.Logger
	metrics  *Metrics
	cfg      Config
}

// New creates a new Handlers instance with the given dependencies.
func New(s StoreFactory, gateway payment.Gateway, mail mailer.Sender, notifier *notify.Sink,
	payments, logins *throttle.Limiter, verifier CredentialVerifier,
	logger *slog.Logger, cfg Config) *Handlers {
	return &Handlers{
		store:    s,
		gateway:  gateway,
		mail:     mail,
		notifier: notifier,
		payments: payments,
		logins:   logins,
		verifier: verifier,
		logger:   logger,
		metrics:  newMetrics(),
		cfg:      cfg,
	}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// rateLimited returns a 429 carrying the remaining lockout minutes.
func (h *Handlers) rateLimited(w http.ResponseWriter, message string, remainingMinutes int) {
	h.respondJson(w, http.StatusTooManyRequests, api.ErrorResponse{
		Error:            message,
		Code:             strconv.Itoa(http.StatusTooManyRequests),
		RemainingMinutes: remainingMinutes,
	})
}

// parsePagination reads limit/offset query parameters with a default limit.
func parsePagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

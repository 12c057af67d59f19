// Package throttle implements a generic attempt-throttle ledger:
// N failures within a window lock the subject out for a fixed duration.
// The same policy backs login throttling (keyed by email) and payment
// throttling (keyed by user id); the namespace keeps the two apart.
package throttle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"talentbridge/internal/store"
)

// Namespaces for the two ledger call sites.
const (
	NamespaceLogin   = "login"
	NamespacePayment = "payment"
)

// Limiter enforces a lockout policy over a persisted ledger.
type Limiter struct {
	store       store.LedgerStore
	logger      *slog.Logger
	namespace   string
	maxAttempts int
	lockout     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// Decision is the outcome of a CheckAllowed call.
type Decision struct {
	Allowed bool
	// RemainingMinutes is how long the lockout lasts, rounded up.
	// Only meaningful when Allowed is false.
	RemainingMinutes int
}

// New creates a Limiter for the given namespace and policy.
func New(s store.LedgerStore, logger *slog.Logger, namespace string, maxAttempts int, lockout time.Duration) *Limiter {
	return &Limiter{
		store:       s,
		logger:      logger,
		namespace:   namespace,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// CheckAllowed reports whether the subject may proceed. An absent or lapsed
// ledger row allows. A subject at or past the attempt limit is locked out;
// the lockout deadline is stamped on the row the first time the limit is
// observed.
func (l *Limiter) CheckAllowed(ctx context.Context, subjectKey string) (Decision, error) {
	ledger, err := l.store.GetLedger(ctx, l.namespace, subjectKey)
	if errors.Is(err, store.ErrNotFound) {
		return Decision{Allowed: true}, nil
	}
	if err != nil {
		return Decision{}, err
	}

	now := l.now()

	if ledger.LockedUntil != nil {
		if ledger.LockedUntil.After(now) {
			return Decision{
				Allowed:          false,
				RemainingMinutes: ceilMinutes(ledger.LockedUntil.Sub(now)),
			}, nil
		}
		// The lockout has been served; reset the counter so the next
		// failures accumulate from zero.
		if err := l.store.ClearLedger(ctx, l.namespace, subjectKey); err != nil {
			l.logger.Error("failed to reset served lockout",
				"namespace", l.namespace, "subject", subjectKey, "error", err)
		}
		return Decision{Allowed: true}, nil
	}

	if ledger.FailedAttempts >= l.maxAttempts {
		lockedUntil := now.Add(l.lockout)
		if err := l.store.SetLockedUntil(ctx, l.namespace, subjectKey, lockedUntil); err != nil {
			// The deny decision stands even if the stamp failed; the next
			// check re-derives it from the attempt count.
			l.logger.Error("failed to stamp lockout",
				"namespace", l.namespace, "subject", subjectKey, "error", err)
		}
		return Decision{
			Allowed:          false,
			RemainingMinutes: ceilMinutes(l.lockout),
		}, nil
	}

	return Decision{Allowed: true}, nil
}

// RecordFailure increments the subject's failure counter. Ledger
// bookkeeping must never block the primary flow, so errors are logged and
// swallowed.
func (l *Limiter) RecordFailure(ctx context.Context, subjectKey, lastError, relatedID string) {
	if err := l.store.UpsertFailure(ctx, l.namespace, subjectKey, lastError, relatedID); err != nil {
		l.logger.Error("failed to record throttle failure",
			"namespace", l.namespace, "subject", subjectKey, "error", err)
	}
}

// Clear resets the subject's counter and lockout after a success.
// Errors are logged and swallowed for the same reason as RecordFailure.
func (l *Limiter) Clear(ctx context.Context, subjectKey string) {
	if err := l.store.ClearLedger(ctx, l.namespace, subjectKey); err != nil {
		l.logger.Error("failed to clear throttle ledger",
			"namespace", l.namespace, "subject", subjectKey, "error", err)
	}
}

func ceilMinutes(d time.Duration) int {
	minutes := int(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

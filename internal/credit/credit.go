// Package credit keeps per-user search balances.
//
// Both Charge and Reward are single conditional UPDATE statements, so concurrent
// requests can never observe or produce a negative balance. When ctx carries a
// transaction (see storage.Transactor) they join it.
package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
)

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Ledger struct {
	store  storage.AllowedUserStorage
	audit  Auditor
	logger *slog.Logger
}

func New(store storage.AllowedUserStorage, audit Auditor, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		audit:  audit,
		logger: logger.With(sl.Module("credit")),
	}
}

// Charge deducts amount and returns the new balance.
// ErrInsufficientCredits leaves the balance untouched.
func (l *Ledger) Charge(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}

	balance, err := l.store.ChargeCredits(ctx, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInsufficientCredits):
			return 0, ledger.ErrInsufficientCredits
		case errors.Is(err, storage.ErrAllowedUserNotFound):
			return 0, ledger.ErrNotRegistered
		}
		return 0, ledger.Unavailable("charge", err)
	}

	return balance, nil
}

// Reward adds amount and returns the new balance. There is no upper bound.
func (l *Ledger) Reward(ctx context.Context, userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ledger.ErrInvalidAmount
	}

	balance, err := l.store.AddCredits(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return 0, ledger.ErrNotRegistered
		}
		return 0, ledger.Unavailable("reward", err)
	}

	return balance, nil
}

func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := l.store.GetAllowedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return 0, ledger.ErrNotRegistered
		}
		return 0, ledger.Unavailable("balance", err)
	}
	return user.Credits, nil
}

// TopUp is an admin credit adjustment, audited as a grant.
// Must not be called inside a transaction: the audit entry is written immediately.
func (l *Ledger) TopUp(ctx context.Context, adminID, userID, amount int64) (int64, error) {
	balance, err := l.Reward(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	l.logger.InfoContext(ctx, "credits topped up",
		slog.Int64("user_id", userID),
		slog.Int64("admin_id", adminID),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance))
	l.audit.Record(ctx, adminID, models.ActionGrant, strconv.FormatInt(userID, 10),
		fmt.Sprintf("topup=%d balance=%d", amount, balance))

	return balance, nil
}

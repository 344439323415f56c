// Package gate decides whether a search or a contribution may run.
//
// Every request walks the same chain inside one transaction:
// identity, ban, rate interval, credit, effect. The outcome is audited after commit.
// Business denials still commit (the rate-limit touch is kept); store failures roll
// everything back and surface as ledger.ErrStoreUnavailable.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/ratelimit"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Store is the persistence the gate reads directly
type Store interface {
	storage.Transactor
	storage.AllowedUserStorage
	storage.SearchLogStorage
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Credits is the part of the credit ledger the gate uses
type Credits interface {
	Charge(ctx context.Context, userID, amount int64) (int64, error)
	Reward(ctx context.Context, userID, amount int64) (int64, error)
}

// Limiter is the part of the rate limiter the gate uses
type Limiter interface {
	Check(ctx context.Context, userID int64) error
	ApplyBurstBan(ctx context.Context, userID int64) (*time.Time, error)
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Config struct {
	SearchCost int64
}

// Decision is the outcome of a gated request.
// Reason is nil when Allowed and one of the ledger business errors otherwise.
type Decision struct {
	BannedUntil *time.Time
	Reason      error
	Balance     int64
	RetryAfter  time.Duration
	Allowed     bool
	// AutoBanned is set when this request triggered the burst ban
	AutoBanned bool
}

// Err returns the denial reason, nil if allowed
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

type Gate struct {
	store   Store
	credits Credits
	limiter Limiter
	audit   Auditor
	logger  *slog.Logger
	now     func() time.Time
	cfg     Config
}

func New(store Store, credits Credits, limiter Limiter, audit Auditor, logger *slog.Logger, cfg Config) *Gate {
	if cfg.SearchCost <= 0 {
		cfg.SearchCost = 1
	}
	return &Gate{
		store:   store,
		credits: credits,
		limiter: limiter,
		audit:   audit,
		logger:  logger.With(sl.Module("gate")),
		now:     time.Now,
		cfg:     cfg,
	}
}

// SetClock replaces the time source, used by tests
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// Search gates a lookup of maleID. On success one credit is charged
// (admins are exempt) and the query is written to the search history.
func (g *Gate) Search(ctx context.Context, userID int64, maleID string) (Decision, error) {
	if !validation.IsIdentifier(maleID) {
		return Decision{}, ledger.ErrInvalidIdentifier
	}

	var d Decision

	err := g.store.InTx(ctx, func(ctx context.Context) error {
		user, admin, err := g.admit(ctx, userID, &d)
		if err != nil || d.Reason != nil {
			return err
		}

		if !admin {
			until, err := g.limiter.ApplyBurstBan(ctx, userID)
			if err != nil {
				return err
			}
			if until != nil {
				d.deny(&ledger.BannedError{Until: *until})
				d.BannedUntil = until
				d.AutoBanned = true
				return nil
			}

			balance, err := g.credits.Charge(ctx, userID, g.cfg.SearchCost)
			if err != nil {
				if ledger.IsBusiness(err) {
					d.deny(err)
					d.Balance = user.Credits
					return nil
				}
				return err
			}
			d.Balance = balance
		} else {
			d.Balance = user.Credits
		}

		if err := g.store.LogSearch(ctx, &models.SearchLogEntry{
			UserID:     userID,
			QueryType:  ratelimit.QueryTypeMale,
			QueryValue: maleID,
			CreatedAt:  g.now().UTC(),
		}); err != nil {
			return ledger.Unavailable("log search", err)
		}

		d.Allowed = true
		return nil
	})
	if err != nil {
		return g.fail(ctx, "search", userID, err)
	}

	g.record(ctx, userID, models.ActionSearch, maleID, d)
	return d, nil
}

// Contribute gates a reward of amount credits for a contributed message.
func (g *Gate) Contribute(ctx context.Context, userID, amount int64) (Decision, error) {
	if amount <= 0 {
		return Decision{}, ledger.ErrInvalidAmount
	}

	var d Decision

	err := g.store.InTx(ctx, func(ctx context.Context) error {
		if _, _, err := g.admit(ctx, userID, &d); err != nil || d.Reason != nil {
			return err
		}

		balance, err := g.credits.Reward(ctx, userID, amount)
		if err != nil {
			if ledger.IsBusiness(err) {
				d.deny(err)
				return nil
			}
			return err
		}

		d.Balance = balance
		d.Allowed = true
		return nil
	})
	if err != nil {
		return g.fail(ctx, "contribute", userID, err)
	}

	g.record(ctx, userID, models.ActionContribute, strconv.FormatInt(amount, 10), d)
	return d, nil
}

// admit runs the identity, ban and rate steps. A denial is written to d and
// the returned error stays nil so the transaction commits the rate-limit touch.
func (g *Gate) admit(ctx context.Context, userID int64, d *Decision) (*models.AllowedUser, bool, error) {
	user, err := g.store.GetAllowedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			d.deny(ledger.ErrNotRegistered)
			return nil, false, nil
		}
		return nil, false, ledger.Unavailable("get allowed user", err)
	}
	d.Balance = user.Credits

	if err := ratelimit.CheckBan(user, g.now()); err != nil {
		d.deny(err)
		d.BannedUntil = user.BannedUntil
		return user, false, nil
	}

	if err := g.limiter.Check(ctx, userID); err != nil {
		var tooSoon *ledger.TooSoonError
		if errors.As(err, &tooSoon) {
			d.deny(err)
			d.RetryAfter = tooSoon.RetryAfter
			return user, false, nil
		}
		return nil, false, err
	}

	admin, err := g.store.IsAdmin(ctx, userID)
	if err != nil {
		return nil, false, ledger.Unavailable("check admin", err)
	}

	return user, admin, nil
}

func (d *Decision) deny(reason error) {
	d.Allowed = false
	d.Reason = reason
}

func (g *Gate) fail(ctx context.Context, op string, userID int64, err error) (Decision, error) {
	if !errors.Is(err, ledger.ErrStoreUnavailable) {
		err = ledger.Unavailable(op, err)
	}
	g.logger.ErrorContext(ctx, "gate aborted", slog.String("op", op), slog.Int64("user_id", userID), sl.Err(err))
	return Decision{}, err
}

// record audits the outcome. It runs after commit and never affects the decision.
func (g *Gate) record(ctx context.Context, userID int64, action, target string, d Decision) {
	if d.AutoBanned {
		g.audit.Record(ctx, 0, models.ActionAutoBan, strconv.FormatInt(userID, 10),
			"until="+d.BannedUntil.Format(time.RFC3339))
	}

	details := fmt.Sprintf("allowed balance=%d", d.Balance)
	if !d.Allowed {
		details = "denied: " + d.Reason.Error()
		g.logger.DebugContext(ctx, "gate denied",
			slog.String("action", action),
			slog.Int64("user_id", userID),
			slog.String("reason", d.Reason.Error()))
	}

	g.audit.Record(ctx, userID, action, target, details)
}

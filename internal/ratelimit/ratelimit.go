// Package ratelimit spaces out gated actions and manages temporary bans.
//
// Bans and intervals are evaluated lazily against the current time: a ban stops
// applying the moment now >= banned_until, no sweeper is involved.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
)

// QueryTypeMale is the search log type counted by the burst policy
const QueryTypeMale = "male"

// Store is the persistence the limiter needs
type Store interface {
	storage.RateLimitStorage
	storage.AllowedUserStorage
	storage.SearchLogStorage
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Policy struct {
	// MinInterval between two gated actions of one user
	MinInterval time.Duration
	// RefreshOnlyOnAllow keeps the timestamp on denied attempts.
	// By default every attempt refreshes it so a denied user can't poll at full speed.
	RefreshOnlyOnAllow bool
	// BurstLimit searches within BurstWindow lead to an AutoBan long ban; 0 disables
	BurstLimit  int
	BurstWindow time.Duration
	AutoBan     time.Duration
}

type Limiter struct {
	store  Store
	audit  Auditor
	logger *slog.Logger
	now    func() time.Time
	policy Policy
}

func New(store Store, audit Auditor, logger *slog.Logger, policy Policy) *Limiter {
	return &Limiter{
		store:  store,
		audit:  audit,
		logger: logger.With(sl.Module("ratelimit")),
		now:    time.Now,
		policy: policy,
	}
}

// SetClock replaces the time source, used by tests
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Limiter) Policy() Policy {
	return l.policy
}

// CheckAndTouch allows the action if at least minInterval passed since the last attempt.
// Returns *ledger.TooSoonError with the remaining wait otherwise.
// Store failures are returned wrapped in ledger.ErrStoreUnavailable.
func (l *Limiter) CheckAndTouch(ctx context.Context, userID int64, minInterval time.Duration) error {
	now := l.now()

	last, ok, err := l.store.GetLastAction(ctx, userID)
	if err != nil {
		return ledger.Unavailable("get last action", err)
	}

	var denied *ledger.TooSoonError
	if ok {
		elapsed := now.Sub(last)
		if elapsed < 0 {
			// часы ушли назад: считаем, что прошло ноль
			elapsed = 0
		}
		if elapsed < minInterval {
			denied = &ledger.TooSoonError{RetryAfter: minInterval - elapsed}
		}
	}

	if denied == nil || !l.policy.RefreshOnlyOnAllow {
		if err := l.store.TouchLastAction(ctx, userID, now); err != nil {
			return ledger.Unavailable("touch last action", err)
		}
	}

	if denied != nil {
		return denied
	}
	return nil
}

// Check applies the configured MinInterval
func (l *Limiter) Check(ctx context.Context, userID int64) error {
	return l.CheckAndTouch(ctx, userID, l.policy.MinInterval)
}

// Ban denies every gated action of the user until the given moment.
func (l *Limiter) Ban(ctx context.Context, actorID, userID int64, until time.Time) error {
	until = until.UTC()
	if err := l.store.SetBannedUntil(ctx, userID, &until); err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return ledger.ErrNotRegistered
		}
		return ledger.Unavailable("ban", err)
	}

	l.logger.InfoContext(ctx, "user banned",
		slog.Int64("user_id", userID),
		slog.Int64("actor_id", actorID),
		slog.Time("until", until))
	l.audit.Record(ctx, actorID, models.ActionBan, strconv.FormatInt(userID, 10), "until="+until.Format(time.RFC3339))

	return nil
}

// ClearBan lifts the ban early
func (l *Limiter) ClearBan(ctx context.Context, actorID, userID int64) error {
	if err := l.store.SetBannedUntil(ctx, userID, nil); err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return ledger.ErrNotRegistered
		}
		return ledger.Unavailable("clear ban", err)
	}

	l.logger.InfoContext(ctx, "user unbanned", slog.Int64("user_id", userID), slog.Int64("actor_id", actorID))
	l.audit.Record(ctx, actorID, models.ActionUnban, strconv.FormatInt(userID, 10), "")

	return nil
}

// IsBanned reports whether the ban is active now and when it lifts
func (l *Limiter) IsBanned(ctx context.Context, userID int64) (bool, time.Time, error) {
	user, err := l.store.GetAllowedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return false, time.Time{}, ledger.ErrNotRegistered
		}
		return false, time.Time{}, ledger.Unavailable("get ban", err)
	}

	if !user.IsBanned(l.now()) {
		return false, time.Time{}, nil
	}
	return true, *user.BannedUntil, nil
}

// CheckBan returns *ledger.BannedError if user's ban is still active at now
func CheckBan(user *models.AllowedUser, now time.Time) error {
	if user.IsBanned(now) {
		return &ledger.BannedError{Until: *user.BannedUntil}
	}
	return nil
}

// ApplyBurstBan bans the user for AutoBan when the search being attempted is the
// BurstLimit-th one within BurstWindow (earlier logged searches plus this one).
// It returns the ban deadline, or nil if the user is within limits.
// The caller audits the ban once its transaction committed.
func (l *Limiter) ApplyBurstBan(ctx context.Context, userID int64) (*time.Time, error) {
	if l.policy.BurstLimit <= 0 {
		return nil, nil
	}

	now := l.now()
	count, err := l.store.CountSearchesSince(ctx, userID, QueryTypeMale, now.Add(-l.policy.BurstWindow))
	if err != nil {
		return nil, ledger.Unavailable("count searches", err)
	}

	// текущий поиск ещё не записан в историю
	if count+1 < l.policy.BurstLimit {
		return nil, nil
	}

	until := now.Add(l.policy.AutoBan).UTC()
	if err := l.store.SetBannedUntil(ctx, userID, &until); err != nil {
		return nil, ledger.Unavailable("auto ban", err)
	}

	l.logger.WarnContext(ctx, "search burst, user auto-banned",
		slog.Int64("user_id", userID),
		slog.Int("searches", count+1),
		slog.Time("until", until))

	return &until, nil
}

// PurgeStale removes rate-limit states older than retention; expired states
// never affect decisions, this only keeps the table small.
func (l *Limiter) PurgeStale(ctx context.Context, retention time.Duration) (int, error) {
	n, err := l.store.DeleteRateLimitsBefore(ctx, l.now().Add(-retention))
	if err != nil {
		return 0, ledger.Unavailable("purge rate limits", err)
	}
	return n, nil
}

// Package invite mints and redeems one-time invitation tokens under per-admin quotas.
//
// Only the sha256 hash of a token is persisted; the plaintext is returned once by Mint.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/crypto"
	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Store is the persistence the invitation authority needs
type Store interface {
	storage.Transactor
	storage.InvitationStorage
	storage.QuotaStorage
	storage.AllowedUserStorage
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Config struct {
	DefaultTTL     time.Duration
	DefaultCredits int64
}

type Authority struct {
	store    Store
	audit    Auditor
	logger   *slog.Logger
	now      func() time.Time
	generate func() (string, error)
	cfg      Config
}

func New(store Store, audit Auditor, logger *slog.Logger, cfg Config) *Authority {
	return &Authority{
		store:    store,
		audit:    audit,
		logger:   logger.With(sl.Module("invite")),
		now:      time.Now,
		generate: crypto.GenerateInviteToken,
		cfg:      cfg,
	}
}

// SetClock replaces the time source, used by tests
func (a *Authority) SetClock(now func() time.Time) {
	a.now = now
}

// Mint issues a token on behalf of issuer. ttl 0 means the configured default.
// The quota counter and the invitation row are written in one transaction.
func (a *Authority) Mint(ctx context.Context, issuer int64, ttl time.Duration) (string, string, error) {
	if ttl == 0 {
		ttl = a.cfg.DefaultTTL
	}
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds <= 0 {
		return "", "", ledger.ErrInvalidTTL
	}

	token, err := a.generate()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	hash, err := crypto.HashToken(token)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash token: %w", err)
	}

	inv := &models.Invitation{
		TokenHash:  hash,
		CreatedBy:  issuer,
		CreatedAt:  a.now().UTC(),
		TTLSeconds: ttlSeconds,
	}

	err = a.store.InTx(ctx, func(ctx context.Context) error {
		if err := a.store.IncrementQuotaUsed(ctx, issuer); err != nil {
			if errors.Is(err, storage.ErrQuotaExhausted) {
				return ledger.ErrQuotaExceeded
			}
			return err
		}
		return a.store.CreateInvitation(ctx, inv)
	})
	if err != nil {
		if ledger.IsBusiness(err) {
			a.logger.InfoContext(ctx, "mint denied", slog.Int64("issuer", issuer), sl.Err(err))
			return "", "", err
		}
		a.logger.ErrorContext(ctx, "failed to mint invitation", slog.Int64("issuer", issuer), sl.Err(err))
		return "", "", ledger.Unavailable("mint", err)
	}

	a.logger.InfoContext(ctx, "invitation minted",
		slog.Int64("issuer", issuer),
		slog.Int64("ttl_seconds", ttlSeconds),
		sl.Secret("token", token))
	a.audit.Record(ctx, issuer, models.ActionMint, hash, fmt.Sprintf("ttl=%d", ttlSeconds))

	return token, hash, nil
}

// Redeem consumes the token and authorizes redeemer with the default balance.
// Of concurrent redeemers of one token exactly one succeeds, the rest get ErrTokenAlreadyUsed.
func (a *Authority) Redeem(ctx context.Context, token string, redeemer int64, username string) (*models.AllowedUser, error) {
	hash, err := crypto.HashToken(token)
	if err != nil {
		return nil, ledger.ErrTokenNotFound
	}

	now := a.now().UTC()
	var user *models.AllowedUser

	err = a.store.InTx(ctx, func(ctx context.Context) error {
		inv, err := a.store.GetInvitation(ctx, hash)
		if err != nil {
			if errors.Is(err, storage.ErrInvitationNotFound) {
				return ledger.ErrTokenNotFound
			}
			return err
		}

		if inv.IsUsed {
			return ledger.ErrTokenAlreadyUsed
		}
		if inv.IsExpired(now) {
			return ledger.ErrTokenExpired
		}

		// условный UPDATE: из параллельных транзакций флаг перевернёт только одна
		if err := a.store.MarkInvitationUsed(ctx, hash, redeemer, now); err != nil {
			switch {
			case errors.Is(err, storage.ErrInvitationUsed):
				return ledger.ErrTokenAlreadyUsed
			case errors.Is(err, storage.ErrInvitationNotFound):
				return ledger.ErrTokenNotFound
			}
			return err
		}

		user, err = a.store.UpsertAllowedUser(ctx, &models.AllowedUser{
			UserID:     redeemer,
			UsernameLC: validation.NormalizeUsername(username),
			Credits:    a.cfg.DefaultCredits,
			AddedBy:    inv.CreatedBy,
			AddedAt:    now,
		})
		return err
	})
	if err != nil {
		if ledger.IsBusiness(err) {
			a.logger.InfoContext(ctx, "redeem denied", slog.Int64("redeemer", redeemer), sl.Err(err))
			return nil, err
		}
		a.logger.ErrorContext(ctx, "failed to redeem invitation", slog.Int64("redeemer", redeemer), sl.Err(err))
		return nil, ledger.Unavailable("redeem", err)
	}

	a.logger.InfoContext(ctx, "invitation redeemed",
		slog.Int64("redeemer", redeemer),
		slog.Int64("credits", user.Credits))
	a.audit.Record(ctx, redeemer, models.ActionRedeem, hash, "user="+strconv.FormatInt(redeemer, 10))

	return user, nil
}

// SetQuota changes the admin's ceiling. A quota below the already used count is rejected.
func (a *Authority) SetQuota(ctx context.Context, actorID, adminID, quota int64) error {
	if quota < 0 {
		return ledger.ErrInvalidQuota
	}

	if err := a.store.SetQuota(ctx, adminID, quota); err != nil {
		if errors.Is(err, storage.ErrQuotaBelowUsed) {
			return fmt.Errorf("%w: below used count", ledger.ErrInvalidQuota)
		}
		return ledger.Unavailable("set quota", err)
	}

	a.logger.InfoContext(ctx, "quota changed",
		slog.Int64("admin_id", adminID),
		slog.Int64("quota", quota),
		slog.Int64("actor_id", actorID))
	a.audit.Record(ctx, actorID, models.ActionQuotaChange, strconv.FormatInt(adminID, 10), fmt.Sprintf("quota=%d", quota))

	return nil
}

// Quota returns the admin's counters; an admin without a row has quota 0
func (a *Authority) Quota(ctx context.Context, adminID int64) (models.AdminInviteQuota, error) {
	q, err := a.store.GetQuota(ctx, adminID)
	if err != nil {
		return models.AdminInviteQuota{}, ledger.Unavailable("get quota", err)
	}
	return q, nil
}

// InvitationView is an invitation with its status derived at read time
type InvitationView struct {
	*models.Invitation
	ExpiresAt time.Time               `json:"expires_at"`
	Status    models.InvitationStatus `json:"status"`
}

func (a *Authority) List(ctx context.Context, adminID int64) ([]InvitationView, error) {
	invs, err := a.store.ListInvitationsByAdmin(ctx, adminID)
	if err != nil {
		return nil, ledger.Unavailable("list invitations", err)
	}

	now := a.now()
	views := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		views = append(views, InvitationView{
			Invitation: inv,
			ExpiresAt:  inv.ExpiresAt(),
			Status:     inv.Status(now),
		})
	}
	return views, nil
}

// PurgeExpired deletes unused invitations that expired more than retention ago.
// Expiry is enforced by Redeem regardless, this only keeps the table small.
func (a *Authority) PurgeExpired(ctx context.Context, retention time.Duration) (int, error) {
	n, err := a.store.DeleteUnusedInvitationsExpiredBefore(ctx, a.now().Add(-retention))
	if err != nil {
		return 0, ledger.Unavailable("purge invitations", err)
	}
	return n, nil
}

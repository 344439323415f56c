// Package identity manages user profiles, admins and search authorizations.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Store is the persistence the identity service needs
type Store interface {
	storage.Transactor
	storage.UserStorage
	storage.AllowedUserStorage
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Service struct {
	store          Store
	audit          Auditor
	logger         *slog.Logger
	now            func() time.Time
	defaultCredits int64
	ownerID        int64 // 0 пока владелец не настроен
}

func New(store Store, audit Auditor, logger *slog.Logger, defaultCredits int64) *Service {
	return &Service{
		store:          store,
		audit:          audit,
		logger:         logger.With(sl.Module("identity")),
		now:            time.Now,
		defaultCredits: defaultCredits,
	}
}

// SetClock replaces the time source, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Touch upserts the profile on every contact.
// If the user is not allowed yet and their username was reserved by an admin, the
// reservation is consumed and the user is granted default credits. Returns true in that case.
func (s *Service) Touch(ctx context.Context, profile *models.User) (bool, error) {
	now := s.now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	usernameLC := validation.NormalizeUsername(profile.Username)
	activated := false

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpsertUser(ctx, profile); err != nil {
			return err
		}

		if usernameLC == "" {
			return nil
		}

		if _, err := s.store.GetAllowedUser(ctx, profile.ID); err == nil {
			return nil
		} else if !errors.Is(err, storage.ErrAllowedUserNotFound) {
			return err
		}

		if _, err := s.store.ConsumeReservedUsername(ctx, usernameLC); err != nil {
			if errors.Is(err, storage.ErrReservationNotFound) {
				return nil
			}
			return err
		}

		_, err := s.store.UpsertAllowedUser(ctx, &models.AllowedUser{
			UserID:     profile.ID,
			UsernameLC: usernameLC,
			Credits:    s.defaultCredits,
			AddedAt:    now,
		})
		if err != nil {
			return err
		}

		activated = true
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to touch profile", slog.Int64("user_id", profile.ID), sl.Err(err))
		return false, ledger.Unavailable("touch profile", err)
	}

	if activated {
		s.logger.InfoContext(ctx, "reserved username accepted",
			slog.Int64("user_id", profile.ID),
			slog.String("username", usernameLC))
		s.audit.Record(ctx, profile.ID, models.ActionAcceptReserved, usernameLC, "")
	}

	return activated, nil
}

// Profile returns the stored profile
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ledger.ErrNotRegistered
		}
		return nil, ledger.Unavailable("get profile", err)
	}
	return user, nil
}

func (s *Service) SetLang(ctx context.Context, userID int64, lang string) error {
	if err := s.store.SetUserLang(ctx, userID, lang); err != nil {
		return ledger.Unavailable("set lang", err)
	}
	return nil
}

// Block soft-blocks the profile. Blocked users keep their data.
func (s *Service) Block(ctx context.Context, actorID, userID int64) error {
	return s.setBlocked(ctx, actorID, userID, true)
}

func (s *Service) Unblock(ctx context.Context, actorID, userID int64) error {
	return s.setBlocked(ctx, actorID, userID, false)
}

func (s *Service) setBlocked(ctx context.Context, actorID, userID int64, blocked bool) error {
	if err := s.store.SetUserBlocked(ctx, userID, blocked); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ledger.ErrNotRegistered
		}
		return ledger.Unavailable("set blocked", err)
	}

	action := models.ActionUnblockUser
	if blocked {
		action = models.ActionBlockUser
	}
	s.audit.Record(ctx, actorID, action, strconv.FormatInt(userID, 10), "")
	return nil
}

func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.store.IsAdmin(ctx, userID)
	if err != nil {
		return false, ledger.Unavailable("check admin", err)
	}
	return ok, nil
}

// RequireAdmin returns ErrNotAdmin unless userID is an admin
func (s *Service) RequireAdmin(ctx context.Context, userID int64) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ledger.ErrNotAdmin
	}
	return nil
}

// AddAdmin makes userID an admin. Only the owner manages admins.
func (s *Service) AddAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.requireOwner(actorID); err != nil {
		return err
	}
	if userID <= 0 {
		return ledger.ErrNotRegistered
	}

	if err := s.store.AddAdmin(ctx, userID, actorID, s.now().UTC()); err != nil {
		return ledger.Unavailable("add admin", err)
	}

	s.logger.InfoContext(ctx, "admin added", slog.Int64("user_id", userID), slog.Int64("actor_id", actorID))
	s.audit.Record(ctx, actorID, models.ActionAddAdmin, strconv.FormatInt(userID, 10), "")
	return nil
}

// RemoveAdmin revokes admin rights. The owner cannot be removed.
func (s *Service) RemoveAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.requireOwner(actorID); err != nil {
		return err
	}
	if userID == s.ownerID {
		return ledger.ErrOwnerOnly
	}

	if err := s.store.RemoveAdmin(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrAdminNotFound) {
			return ledger.ErrNotAdmin
		}
		return ledger.Unavailable("remove admin", err)
	}

	s.logger.InfoContext(ctx, "admin removed", slog.Int64("user_id", userID), slog.Int64("actor_id", actorID))
	s.audit.Record(ctx, actorID, models.ActionRemoveAdmin, strconv.FormatInt(userID, 10), "")
	return nil
}

// IsOwner reports whether userID is the configured owner
func (s *Service) IsOwner(userID int64) bool {
	return s.ownerID != 0 && userID == s.ownerID
}

func (s *Service) requireOwner(actorID int64) error {
	if !s.IsOwner(actorID) {
		return ledger.ErrOwnerOnly
	}
	return nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, ledger.Unavailable("list admins", err)
	}
	return admins, nil
}

// Grant authorizes the user directly, bypassing invitations.
// credits 0 means the default balance. An existing balance is never lowered.
func (s *Service) Grant(ctx context.Context, adminID, userID int64, username string, credits int64) (*models.AllowedUser, error) {
	if credits < 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if credits == 0 {
		credits = s.defaultCredits
	}

	user, err := s.store.UpsertAllowedUser(ctx, &models.AllowedUser{
		UserID:     userID,
		UsernameLC: validation.NormalizeUsername(username),
		Credits:    credits,
		AddedBy:    adminID,
		AddedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, ledger.Unavailable("grant", err)
	}

	s.logger.InfoContext(ctx, "user granted",
		slog.Int64("user_id", userID),
		slog.Int64("admin_id", adminID),
		slog.Int64("credits", user.Credits))
	s.audit.Record(ctx, adminID, models.ActionGrant, strconv.FormatInt(userID, 10),
		fmt.Sprintf("credits=%d", user.Credits))

	return user, nil
}

// Revoke removes the search authorization. The profile and history stay.
func (s *Service) Revoke(ctx context.Context, adminID, userID int64) error {
	if err := s.store.DeleteAllowedUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return ledger.ErrNotRegistered
		}
		return ledger.Unavailable("revoke", err)
	}

	s.logger.InfoContext(ctx, "user revoked", slog.Int64("user_id", userID), slog.Int64("admin_id", adminID))
	s.audit.Record(ctx, adminID, models.ActionRevoke, strconv.FormatInt(userID, 10), "")
	return nil
}

// AllowedUser returns the authorization record, ErrNotRegistered if there is none
func (s *Service) AllowedUser(ctx context.Context, userID int64) (*models.AllowedUser, error) {
	user, err := s.store.GetAllowedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return nil, ledger.ErrNotRegistered
		}
		return nil, ledger.Unavailable("get allowed user", err)
	}
	return user, nil
}

func (s *Service) ListAllowedByAdmin(ctx context.Context, adminID int64) ([]*models.AllowedUser, error) {
	users, err := s.store.ListAllowedUsersByAdmin(ctx, adminID)
	if err != nil {
		return nil, ledger.Unavailable("list allowed users", err)
	}
	return users, nil
}

// Reserve remembers a username; the user is granted on first contact
func (s *Service) Reserve(ctx context.Context, adminID int64, username string) error {
	usernameLC := validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(usernameLC); err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidUsername, err)
	}

	if err := s.store.ReserveUsername(ctx, usernameLC, adminID, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrReservationExists) {
			return ledger.ErrAlreadyReserved
		}
		return ledger.Unavailable("reserve username", err)
	}

	s.audit.Record(ctx, adminID, models.ActionReserveUsername, usernameLC, "")
	return nil
}

// BootstrapOwner makes the configured owner an admin with a large balance.
// It is idempotent and safe to run on every start.
func (s *Service) BootstrapOwner(ctx context.Context, ownerID, credits int64) error {
	if ownerID == 0 {
		return nil
	}

	now := s.now().UTC()
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.AddAdmin(ctx, ownerID, ownerID, now); err != nil {
			return err
		}
		_, err := s.store.UpsertAllowedUser(ctx, &models.AllowedUser{
			UserID:  ownerID,
			Credits: credits,
			AddedBy: ownerID,
			AddedAt: now,
		})
		return err
	})
	if err != nil {
		return ledger.Unavailable("bootstrap owner", err)
	}

	s.ownerID = ownerID
	s.logger.InfoContext(ctx, "owner bootstrapped", slog.Int64("owner_id", ownerID))
	return nil
}

// Package chatauth controls which group chats are indexed.
//
// An admin gets a one-time secret in a private chat and posts it in the group with
// /authorize. The secret is stored hashed and consumed in the same transaction that
// authorizes the chat.
package chatauth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/chatgate/internal/crypto"
	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Store is the persistence chat authorization needs
type Store interface {
	storage.Transactor
	storage.ChatStorage
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

type Service struct {
	store     Store
	audit     Auditor
	logger    *slog.Logger
	now       func() time.Time
	secretTTL time.Duration
}

// New creates the service. Secrets older than secretTTL are rejected, 0 disables expiry.
func New(store Store, audit Auditor, logger *slog.Logger, secretTTL time.Duration) *Service {
	return &Service{
		store:     store,
		audit:     audit,
		logger:    logger.With(sl.Module("chatauth")),
		now:       time.Now,
		secretTTL: secretTTL,
	}
}

// SetClock replaces the time source, used by tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// FemaleIDFromTitle returns the first standalone 10-digit group of the title or UNKNOWN
func FemaleIDFromTitle(title string) string {
	if id, ok := validation.FemaleIDFromTitle(title); ok {
		return id
	}
	return models.UnknownFemaleID
}

func normalizeSecret(secret string) string {
	return strings.ToUpper(strings.TrimSpace(secret))
}

// IssueSecret creates a one-time chat authorization secret for the admin
func (s *Service) IssueSecret(ctx context.Context, adminID int64) (string, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return "", err
	}

	secret, err := crypto.GenerateChatSecret()
	if err != nil {
		return "", err
	}

	hash, err := crypto.HashToken(secret)
	if err != nil {
		return "", err
	}

	err = s.store.SavePendingAuthorization(ctx, &models.PendingAuthorization{
		SecretHash: hash,
		CreatedBy:  adminID,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return "", ledger.Unavailable("save secret", err)
	}

	s.logger.InfoContext(ctx, "chat secret issued", slog.Int64("admin_id", adminID))
	s.audit.Record(ctx, adminID, models.ActionIssueChatSecret, hash, "")

	return secret, nil
}

// Authorize consumes the secret and authorizes the chat in one transaction.
// The caller checks that adminID administers the group.
func (s *Service) Authorize(ctx context.Context, adminID int64, secret string, chatID int64, title string) (*models.AllowedChat, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	hash, err := crypto.HashToken(normalizeSecret(secret))
	if err != nil {
		return nil, ledger.ErrSecretNotFound
	}

	now := s.now().UTC()
	chat := &models.AllowedChat{
		ChatID:   chatID,
		Title:    title,
		FemaleID: FemaleIDFromTitle(title),
		AddedBy:  adminID,
		AddedAt:  now,
	}

	expired := false
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		pending, err := s.store.ConsumePendingAuthorization(ctx, hash)
		if err != nil {
			if errors.Is(err, storage.ErrSecretNotFound) {
				return ledger.ErrSecretNotFound
			}
			return err
		}

		if s.secretTTL > 0 && now.Sub(pending.CreatedAt) > s.secretTTL {
			// секрет сгорает, удаление коммитится
			expired = true
			return nil
		}

		return s.store.UpsertAllowedChat(ctx, chat)
	})
	if err != nil {
		if ledger.IsBusiness(err) {
			return nil, err
		}
		return nil, ledger.Unavailable("authorize chat", err)
	}
	if expired {
		return nil, ledger.ErrSecretNotFound
	}

	s.logger.InfoContext(ctx, "chat authorized",
		slog.Int64("chat_id", chatID),
		slog.Int64("admin_id", adminID),
		slog.String("female_id", chat.FemaleID))
	s.audit.Record(ctx, adminID, models.ActionAuthorizeChat, strconv.FormatInt(chatID, 10), "female_id="+chat.FemaleID)

	return chat, nil
}

// AutoAuthorize authorizes the chat the bot was just added to, if the inviter is an admin
func (s *Service) AutoAuthorize(ctx context.Context, inviterID, chatID int64, title string) (*models.AllowedChat, error) {
	if err := s.requireAdmin(ctx, inviterID); err != nil {
		return nil, err
	}

	chat := &models.AllowedChat{
		ChatID:   chatID,
		Title:    title,
		FemaleID: FemaleIDFromTitle(title),
		AddedBy:  inviterID,
		AddedAt:  s.now().UTC(),
	}

	if err := s.store.UpsertAllowedChat(ctx, chat); err != nil {
		return nil, ledger.Unavailable("auto authorize chat", err)
	}

	s.logger.InfoContext(ctx, "chat auto-authorized", slog.Int64("chat_id", chatID), slog.Int64("inviter_id", inviterID))
	s.audit.Record(ctx, inviterID, models.ActionAutoAuthorizeChat, strconv.FormatInt(chatID, 10), "female_id="+chat.FemaleID)

	return chat, nil
}

// Unauthorize removes the chat; its indexed messages, identifiers and legends cascade
func (s *Service) Unauthorize(ctx context.Context, actorID, chatID int64) error {
	if err := s.store.DeleteAllowedChat(ctx, chatID); err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			return ledger.ErrChatNotAllowed
		}
		return ledger.Unavailable("unauthorize chat", err)
	}

	s.logger.InfoContext(ctx, "chat unauthorized", slog.Int64("chat_id", chatID), slog.Int64("actor_id", actorID))
	s.audit.Record(ctx, actorID, models.ActionUnauthorizeChat, strconv.FormatInt(chatID, 10), "")

	return nil
}

// IsAllowed reports whether messages of the chat are indexed
func (s *Service) IsAllowed(ctx context.Context, chatID int64) (bool, error) {
	_, err := s.store.GetAllowedChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			return false, nil
		}
		return false, ledger.Unavailable("get chat", err)
	}
	return true, nil
}

// ChatByFemaleID returns the most recently authorized chat of the female id
func (s *Service) ChatByFemaleID(ctx context.Context, femaleID string) (*models.AllowedChat, error) {
	if !validation.IsIdentifier(femaleID) {
		return nil, ledger.ErrInvalidIdentifier
	}

	chat, err := s.store.FindChatByFemaleID(ctx, femaleID)
	if err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			return nil, ledger.ErrChatNotAllowed
		}
		return nil, ledger.Unavailable("find chat", err)
	}
	return chat, nil
}

// List returns authorized chats; adminID 0 lists all of them
func (s *Service) List(ctx context.Context, adminID int64) ([]*models.AllowedChat, error) {
	chats, err := s.store.ListAllowedChats(ctx, adminID)
	if err != nil {
		return nil, ledger.Unavailable("list chats", err)
	}
	return chats, nil
}

// PurgeSecrets removes secrets older than retention
func (s *Service) PurgeSecrets(ctx context.Context, retention time.Duration) (int, error) {
	n, err := s.store.DeletePendingAuthorizationsBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, ledger.Unavailable("purge secrets", err)
	}
	return n, nil
}

func (s *Service) requireAdmin(ctx context.Context, userID int64) error {
	ok, err := s.store.IsAdmin(ctx, userID)
	if err != nil {
		return ledger.Unavailable("check admin", err)
	}
	if !ok {
		return ledger.ErrNotAdmin
	}
	return nil
}

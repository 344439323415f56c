// Package index stores group messages that mention ten-digit identifiers and
// serves lookups after the access gate has allowed them.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/chatgate/internal/gate"
	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// Store is the persistence the index needs
type Store interface {
	storage.Transactor
	storage.MessageStorage
	GetAllowedChat(ctx context.Context, chatID int64) (*models.AllowedChat, error)
	GetAllowedUser(ctx context.Context, userID int64) (*models.AllowedUser, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Contributor rewards the sender of an indexed message
type Contributor interface {
	Contribute(ctx context.Context, userID, amount int64) (gate.Decision, error)
}

// Auditor records sensitive transitions after commit
type Auditor interface {
	Record(ctx context.Context, actorID int64, action, target, details string)
}

// Record is a group message as delivered by the chat platform
type Record struct {
	Date            time.Time
	SenderUsername  string
	SenderFirstName string
	Text            string
	MediaType       string
	FileID          string
	// Identifiers pushed by the caller; empty means extract them from Text
	Identifiers []string
	ChatID      int64
	MessageID   int64
	SenderID    int64
	IsForward   bool
}

// Result describes what Ingest did with a record
type Result struct {
	MaleIDs  []string
	RowID    int64
	Balance  int64
	Inserted bool
	Rewarded bool
}

type Index struct {
	store       Store
	contributor Contributor
	audit       Auditor
	logger      *slog.Logger
	gain        int64
}

// New creates the index. gain is the credit reward per contributed message.
func New(store Store, contributor Contributor, audit Auditor, logger *slog.Logger, gain int64) *Index {
	if gain <= 0 {
		gain = 1
	}
	return &Index{
		store:       store,
		contributor: contributor,
		audit:       audit,
		logger:      logger.With(sl.Module("index")),
		gain:        gain,
	}
}

// Ingest stores the message and links its identifiers. Messages without
// identifiers are skipped. A registered non-admin sender is rewarded once per
// new message through the gate.
func (i *Index) Ingest(ctx context.Context, rec Record) (Result, error) {
	var res Result

	if err := i.requireChat(ctx, rec.ChatID); err != nil {
		return res, err
	}

	res.MaleIDs = identifiers(rec)
	if len(res.MaleIDs) == 0 {
		return res, nil
	}

	if err := i.save(ctx, rec, &res); err != nil {
		return res, err
	}

	if !res.Inserted || rec.SenderID == 0 {
		return res, nil
	}

	return i.reward(ctx, rec.SenderID, res)
}

// Report indexes a report the bot relayed into the chat on behalf of
// rec.SenderID. The reporter is rewarded for every new report, even one without
// identifiers.
func (i *Index) Report(ctx context.Context, rec Record, femaleID string) (Result, error) {
	var res Result

	if err := i.requireChat(ctx, rec.ChatID); err != nil {
		return res, err
	}

	res.MaleIDs = identifiers(rec)
	if len(res.MaleIDs) > 0 {
		if err := i.save(ctx, rec, &res); err != nil {
			return res, err
		}
		if !res.Inserted {
			return res, nil
		}
	}

	res, err := i.reward(ctx, rec.SenderID, res)
	if err != nil {
		return res, err
	}

	i.logger.InfoContext(ctx, "report relayed",
		slog.Int64("user_id", rec.SenderID),
		slog.Int64("chat_id", rec.ChatID),
		slog.String("female_id", femaleID),
		slog.Bool("rewarded", res.Rewarded))
	i.audit.Record(ctx, rec.SenderID, models.ActionReport, femaleID, fmt.Sprintf("chat_id=%d", rec.ChatID))

	return res, nil
}

func (i *Index) save(ctx context.Context, rec Record, res *Result) error {
	err := i.store.InTx(ctx, func(ctx context.Context) error {
		rowID, inserted, err := i.store.SaveMessage(ctx, &models.Message{
			ChatID:          rec.ChatID,
			MessageID:       rec.MessageID,
			SenderID:        rec.SenderID,
			SenderUsername:  rec.SenderUsername,
			SenderFirstName: rec.SenderFirstName,
			Date:            rec.Date.UTC(),
			Text:            rec.Text,
			MediaType:       rec.MediaType,
			FileID:          rec.FileID,
			IsForward:       rec.IsForward,
		})
		if err != nil {
			return err
		}
		res.RowID = rowID
		res.Inserted = inserted

		return i.store.LinkMaleIDs(ctx, rowID, res.MaleIDs)
	})
	if err != nil {
		return ledger.Unavailable("ingest message", err)
	}

	i.logger.DebugContext(ctx, "message indexed",
		slog.Int64("chat_id", rec.ChatID),
		slog.Int64("message_id", rec.MessageID),
		slog.Int("male_ids", len(res.MaleIDs)),
		slog.Bool("inserted", res.Inserted))
	return nil
}

// identifiers returns the valid pushed identifiers without duplicates, or the
// ones found in the text when none were pushed
func identifiers(rec Record) []string {
	if len(rec.Identifiers) == 0 {
		return validation.ExtractIdentifiers(rec.Text)
	}

	seen := make(map[string]struct{}, len(rec.Identifiers))
	ids := make([]string, 0, len(rec.Identifiers))
	for _, id := range rec.Identifiers {
		if !validation.IsIdentifier(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (i *Index) reward(ctx context.Context, senderID int64, res Result) (Result, error) {
	if senderID == 0 {
		return res, nil
	}
	if _, err := i.store.GetAllowedUser(ctx, senderID); err != nil {
		if errors.Is(err, storage.ErrAllowedUserNotFound) {
			return res, nil
		}
		return res, ledger.Unavailable("get allowed user", err)
	}

	admin, err := i.store.IsAdmin(ctx, senderID)
	if err != nil {
		return res, ledger.Unavailable("check admin", err)
	}
	if admin {
		return res, nil
	}

	d, err := i.contributor.Contribute(ctx, senderID, i.gain)
	if err != nil {
		return res, err
	}
	if !d.Allowed {
		i.logger.DebugContext(ctx, "contribution not rewarded",
			slog.Int64("user_id", senderID),
			slog.String("reason", d.Reason.Error()))
		return res, nil
	}

	res.Rewarded = true
	res.Balance = d.Balance
	return res, nil
}

// Edit replaces the text of an indexed message and relinks its identifiers.
// Unknown messages are ignored and edits are never rewarded.
func (i *Index) Edit(ctx context.Context, rec Record) ([]string, error) {
	if err := i.requireChat(ctx, rec.ChatID); err != nil {
		return nil, err
	}

	maleIDs := identifiers(rec)

	err := i.store.InTx(ctx, func(ctx context.Context) error {
		rowID, err := i.store.GetMessageRowID(ctx, rec.ChatID, rec.MessageID)
		if err != nil {
			return err
		}

		if err := i.store.UpdateMessageText(ctx, rowID, rec.Text); err != nil {
			return err
		}
		if err := i.store.UnlinkMaleIDs(ctx, rowID); err != nil {
			return err
		}
		return i.store.LinkMaleIDs(ctx, rowID, maleIDs)
	})
	if errors.Is(err, storage.ErrMessageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ledger.Unavailable("edit message", err)
	}

	return maleIDs, nil
}

// Lookup returns indexed messages referencing maleID, newest first
func (i *Index) Lookup(ctx context.Context, maleID string, limit, offset int) ([]*models.Message, error) {
	if !validation.IsIdentifier(maleID) {
		return nil, ledger.ErrInvalidIdentifier
	}
	if limit <= 0 {
		limit = 5
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := i.store.SearchByMale(ctx, maleID, limit, offset)
	if err != nil {
		return nil, ledger.Unavailable("search messages", err)
	}
	return messages, nil
}

func (i *Index) Count(ctx context.Context, maleID string) (int64, error) {
	if !validation.IsIdentifier(maleID) {
		return 0, ledger.ErrInvalidIdentifier
	}

	n, err := i.store.CountByMale(ctx, maleID)
	if err != nil {
		return 0, ledger.Unavailable("count messages", err)
	}
	return n, nil
}

func (i *Index) Stats(ctx context.Context) (models.IndexStats, error) {
	stats, err := i.store.Stats(ctx)
	if err != nil {
		return stats, ledger.Unavailable("index stats", err)
	}
	return stats, nil
}

func (i *Index) requireChat(ctx context.Context, chatID int64) error {
	if _, err := i.store.GetAllowedChat(ctx, chatID); err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			return ledger.ErrChatNotAllowed
		}
		return ledger.Unavailable("get chat", err)
	}
	return nil
}

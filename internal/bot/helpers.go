package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/iudanet/chatgate/internal/index"
	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/sl"
)

func (t *TgBot) plainResponse(chatId int64, text string) {
	t.sendWithKeyboard(chatId, text, nil)
}

// sendWithKeyboard sends plain text, markup may be nil
func (t *TgBot) sendWithKeyboard(chatId int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if text == "" {
		t.log.With(slog.Int64("id", chatId)).Debug("empty message")
		return
	}

	opts := &tgbotapi.SendMessageOpts{}
	if markup != nil {
		opts.ReplyMarkup = *markup
	}
	if _, err := t.api.SendMessage(chatId, text, opts); err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
	}
}

// reportError answers with the localized reason. Only store failures are logged as errors.
func (t *TgBot) reportError(chatId int64, lang, where string, err error) {
	if ledger.IsBusiness(err) {
		t.log.Debug("request denied", slog.String("where", where), slog.Int64("id", chatId), sl.Err(err))
	} else {
		t.log.Error("request failed", slog.String("where", where), slog.Int64("id", chatId), sl.Err(err))
	}
	t.plainResponse(chatId, denial(lang, err))
}

// denial maps a ledger error to a user-facing text
func denial(lang string, err error) string {
	var banned *ledger.BannedError
	if errors.As(err, &banned) {
		return tr(lang, "banned", banned.Until.Local().Format(time.DateTime))
	}

	var tooSoon *ledger.TooSoonError
	if errors.As(err, &tooSoon) {
		wait := tooSoon.RetryAfter.Round(time.Second)
		if wait < time.Second {
			wait = time.Second
		}
		return tr(lang, "rate_limited", wait.String())
	}

	switch {
	case errors.Is(err, ledger.ErrStoreUnavailable):
		return tr(lang, "try_again")
	case errors.Is(err, ledger.ErrNotRegistered):
		return tr(lang, "not_authorized")
	case errors.Is(err, ledger.ErrInsufficientCredits):
		return tr(lang, "no_credits")
	case errors.Is(err, ledger.ErrTokenNotFound):
		return tr(lang, "token_not_found")
	case errors.Is(err, ledger.ErrTokenExpired):
		return tr(lang, "token_expired")
	case errors.Is(err, ledger.ErrTokenAlreadyUsed):
		return tr(lang, "token_used")
	case errors.Is(err, ledger.ErrQuotaExceeded):
		return tr(lang, "quota_exceeded")
	case errors.Is(err, ledger.ErrSecretNotFound):
		return tr(lang, "secret_not_found")
	case errors.Is(err, ledger.ErrNotAdmin):
		return tr(lang, "not_admin")
	case errors.Is(err, ledger.ErrAlreadyReserved):
		return tr(lang, "reserved_exists")
	case errors.Is(err, ledger.ErrOwnerOnly):
		return tr(lang, "owner_only")
	case errors.Is(err, ledger.ErrChatNotAllowed):
		return tr(lang, "chat_not_found")
	case ledger.IsBusiness(err):
		return tr(lang, "bad_request")
	}
	return tr(lang, "try_again")
}

// langFor returns the stored interface language or the default one
func (t *TgBot) langFor(ctx context.Context, userID int64) string {
	profile, err := t.svc.Identity.Profile(ctx, userID)
	if err != nil || (profile.Lang != langRU && profile.Lang != langUK) {
		return t.config.DefaultLang
	}
	return profile.Lang
}

// checkIn touches the profile on every private contact.
// ok is false for blocked users and on store failures; they get no answer beyond an error text.
func (t *TgBot) checkIn(ctx context.Context, user *tgbotapi.User) (lang string, activated bool, ok bool) {
	activated, err := t.svc.Identity.Touch(ctx, &models.User{
		ID:        user.Id,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Lang:      t.config.DefaultLang,
	})
	if err != nil {
		t.reportError(user.Id, t.config.DefaultLang, "touch", err)
		return "", false, false
	}

	profile, err := t.svc.Identity.Profile(ctx, user.Id)
	if err != nil {
		t.reportError(user.Id, t.config.DefaultLang, "profile", err)
		return "", false, false
	}
	if profile.IsBlocked {
		t.log.Debug("ignoring blocked user", slog.Int64("user_id", user.Id))
		return "", false, false
	}

	lang = profile.Lang
	if lang != langRU && lang != langUK {
		lang = t.config.DefaultLang
	}
	return lang, activated, true
}

// commandArgs returns the words after the command itself
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

func isPrivate(chat *tgbotapi.Chat) bool {
	return chat != nil && chat.Type == "private"
}

func isGroup(chat *tgbotapi.Chat) bool {
	return chat != nil && (chat.Type == "group" || chat.Type == "supergroup")
}

// recordFrom converts a group message into an index record.
// Caption wins over text for media messages; the largest photo size is kept.
func recordFrom(msg *tgbotapi.Message) index.Record {
	rec := index.Record{
		ChatID:    msg.Chat.Id,
		MessageID: msg.MessageId,
		Date:      time.Unix(msg.Date, 0).UTC(),
		Text:      msg.Text,
		IsForward: msg.ForwardOrigin != nil,
	}
	if msg.Caption != "" {
		rec.Text = msg.Caption
	}

	if msg.From != nil {
		rec.SenderID = msg.From.Id
		rec.SenderUsername = msg.From.Username
		rec.SenderFirstName = msg.From.FirstName
	}

	switch {
	case len(msg.Photo) > 0:
		rec.MediaType = "photo"
		rec.FileID = msg.Photo[len(msg.Photo)-1].FileId
	case msg.Video != nil:
		rec.MediaType = "video"
		rec.FileID = msg.Video.FileId
	case msg.Audio != nil:
		rec.MediaType = "audio"
		rec.FileID = msg.Audio.FileId
	case msg.Voice != nil:
		rec.MediaType = "voice"
		rec.FileID = msg.Voice.FileId
	case msg.Document != nil:
		rec.MediaType = "document"
		rec.FileID = msg.Document.FileId
	}

	return rec
}

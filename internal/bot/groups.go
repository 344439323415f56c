package bot

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/sl"
)

func isGroupMessage(msg *tgbotapi.Message) bool {
	return isGroup(&msg.Chat)
}

func memberStatus(m tgbotapi.ChatMember) string {
	if m == nil {
		return ""
	}
	return m.GetStatus()
}

func (t *TgBot) onGroupMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	if msg == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	if ctx.EditedMessage != nil {
		t.handleEdit(c, msg)
		return nil
	}
	t.handleGroupMessage(c, msg)
	return nil
}

// handleGroupMessage indexes the message when the chat is authorized.
// Nothing is ever answered in the group.
func (t *TgBot) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) {
	rec := recordFrom(msg)
	if rec.Text == "" {
		return
	}

	res, err := t.svc.Index.Ingest(ctx, rec)
	if err != nil {
		if errors.Is(err, ledger.ErrChatNotAllowed) {
			return
		}
		t.log.Error("ingest message",
			slog.Int64("chat_id", rec.ChatID),
			slog.Int64("message_id", rec.MessageID),
			sl.Err(err))
		return
	}

	if res.Inserted {
		t.log.Debug("message indexed",
			slog.Int64("chat_id", rec.ChatID),
			slog.Int("ids", len(res.MaleIDs)),
			slog.Bool("rewarded", res.Rewarded))
	}
}

func (t *TgBot) handleEdit(ctx context.Context, msg *tgbotapi.Message) {
	rec := recordFrom(msg)
	if _, err := t.svc.Index.Edit(ctx, rec); err != nil {
		if errors.Is(err, ledger.ErrChatNotAllowed) {
			return
		}
		t.log.Error("edit message",
			slog.Int64("chat_id", rec.ChatID),
			slog.Int64("message_id", rec.MessageID),
			sl.Err(err))
	}
}

func (t *TgBot) authorize(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isGroup(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleAuthorize(c, ctx.EffectiveChat, ctx.EffectiveUser, commandArgs(ctx.EffectiveMessage.Text))
	return nil
}

// handleAuthorize: /authorize <secret>, sent by a bot admin who also administers the group
func (t *TgBot) handleAuthorize(ctx context.Context, chat *tgbotapi.Chat, user *tgbotapi.User, args []string) {
	lang := t.langFor(ctx, user.Id)
	if len(args) != 1 {
		t.plainResponse(chat.Id, tr(lang, "usage_authorize"))
		return
	}

	member, err := t.api.GetChatMember(chat.Id, user.Id, nil)
	if err != nil {
		t.log.Warn("get chat member", slog.Int64("chat_id", chat.Id), slog.Int64("user_id", user.Id), sl.Err(err))
		t.plainResponse(chat.Id, tr(lang, "try_again"))
		return
	}
	if status := memberStatus(member); status != "creator" && status != "administrator" {
		t.plainResponse(chat.Id, tr(lang, "group_admin_only"))
		return
	}

	allowed, err := t.svc.Chats.Authorize(ctx, user.Id, args[0], chat.Id, chat.Title)
	if err != nil {
		t.reportError(chat.Id, lang, "/authorize", err)
		return
	}
	t.plainResponse(chat.Id, tr(lang, "authorize_ok", allowed.FemaleID))
}

func (t *TgBot) unauthorize(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isGroup(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleUnauthorize(c, ctx.EffectiveChat, ctx.EffectiveUser)
	return nil
}

// handleUnauthorize drops the chat and everything indexed from it. Owner only.
func (t *TgBot) handleUnauthorize(ctx context.Context, chat *tgbotapi.Chat, user *tgbotapi.User) {
	lang := t.langFor(ctx, user.Id)
	if t.config.OwnerID == 0 || user.Id != t.config.OwnerID {
		t.plainResponse(chat.Id, tr(lang, "owner_only"))
		return
	}

	if err := t.svc.Chats.Unauthorize(ctx, user.Id, chat.Id); err != nil {
		t.reportError(chat.Id, lang, "/unauthorize", err)
		return
	}
	t.plainResponse(chat.Id, tr(lang, "unauthorize_ok"))
}

func (t *TgBot) onMyChatMember(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.MyChatMember == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleBotAdded(c, ctx.MyChatMember)
	return nil
}

// handleBotAdded authorizes the group when an admin adds the bot to it
func (t *TgBot) handleBotAdded(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if !isGroup(&upd.Chat) {
		return
	}

	switch memberStatus(upd.OldChatMember) {
	case "", "left", "kicked":
	default:
		return
	}
	switch memberStatus(upd.NewChatMember) {
	case "member", "administrator":
	default:
		return
	}

	inviter := upd.From.Id
	lang := t.langFor(ctx, inviter)

	allowed, err := t.svc.Chats.AutoAuthorize(ctx, inviter, upd.Chat.Id, upd.Chat.Title)
	if err != nil {
		if errors.Is(err, ledger.ErrNotAdmin) {
			t.plainResponse(upd.Chat.Id, tr(lang, "authorize_hint"))
			return
		}
		t.log.Error("auto authorize", slog.Int64("chat_id", upd.Chat.Id), slog.Int64("inviter", inviter), sl.Err(err))
		return
	}
	t.plainResponse(upd.Chat.Id, tr(lang, "authorize_ok", allowed.FemaleID))
}

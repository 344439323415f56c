package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iudanet/chatgate/internal/ratelimit"
	"github.com/iudanet/chatgate/internal/sl"
	"github.com/iudanet/chatgate/internal/validation"
)

// callback data: more:<male id>:<offset>
const cbMore = "more:"

func isSearchQuery(msg *tgbotapi.Message) bool {
	return msg.Chat.Type == "private" && validation.IsIdentifier(strings.TrimSpace(msg.Text))
}

func (t *TgBot) search(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleSearch(c, ctx.EffectiveUser, strings.TrimSpace(ctx.EffectiveMessage.Text))
	return nil
}

// handleSearch runs the gate and, when allowed, sends the first page of results
func (t *TgBot) handleSearch(ctx context.Context, user *tgbotapi.User, maleID string) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	d, err := t.svc.Gate.Search(ctx, user.Id, maleID)
	if err != nil {
		t.reportError(user.Id, lang, "search", err)
		return
	}
	if !d.Allowed {
		t.plainResponse(user.Id, denial(lang, d.Reason))
		return
	}

	t.sendResults(ctx, user.Id, lang, maleID, 0)
}

// sendResults copies one page of indexed messages to the user.
// Messages that can no longer be copied are sent as their stored text.
func (t *TgBot) sendResults(ctx context.Context, chatId int64, lang, maleID string, offset int) {
	total, err := t.svc.Index.Count(ctx, maleID)
	if err != nil {
		t.reportError(chatId, lang, "count", err)
		return
	}
	if total == 0 {
		t.plainResponse(chatId, tr(lang, "search_not_found"))
		return
	}

	rows, err := t.svc.Index.Lookup(ctx, maleID, t.config.PageSize, offset)
	if err != nil {
		t.reportError(chatId, lang, "lookup", err)
		return
	}

	for _, row := range rows {
		if _, err := t.api.CopyMessage(chatId, row.ChatID, row.MessageID, nil); err != nil {
			t.log.Debug("copy failed, sending text",
				slog.Int64("chat_id", row.ChatID),
				slog.Int64("message_id", row.MessageID),
				sl.Err(err))
			text := row.Text
			if text == "" {
				text = tr(lang, "no_text")
			}
			t.plainResponse(chatId, text)
		}
	}

	next := offset + t.config.PageSize
	if int64(next) >= total {
		t.plainResponse(chatId, fmt.Sprintf("%d/%d", total, total))
		return
	}

	t.sendWithKeyboard(chatId, fmt.Sprintf("%d/%d", next, total), &tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{{
			{Text: tr(lang, "more"), CallbackData: fmt.Sprintf("%s%s:%d", cbMore, maleID, next)},
		}},
	})
}

func (t *TgBot) onMoreCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	if cq == nil {
		return nil
	}
	defer func() {
		_, _ = t.api.AnswerCallbackQuery(cq.Id, &tgbotapi.AnswerCallbackQueryOpts{})
	}()

	c, cancel := requestContext()
	defer cancel()

	t.handleMore(c, &cq.From, cq.Data)
	return nil
}

// handleMore sends the next page. Paging is free but still requires an
// authorized, non-banned user.
func (t *TgBot) handleMore(ctx context.Context, user *tgbotapi.User, data string) {
	maleID, offset, ok := parseMore(data)
	if !ok {
		t.log.Debug("bad callback data", slog.String("data", data))
		return
	}

	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	allowed, err := t.svc.Identity.AllowedUser(ctx, user.Id)
	if err != nil {
		t.reportError(user.Id, lang, "more", err)
		return
	}
	if err := ratelimit.CheckBan(allowed, t.now()); err != nil {
		t.plainResponse(user.Id, denial(lang, err))
		return
	}

	t.sendResults(ctx, user.Id, lang, maleID, offset)
}

func parseMore(data string) (string, int, bool) {
	rest, ok := strings.CutPrefix(data, cbMore)
	if !ok {
		return "", 0, false
	}
	maleID, off, ok := strings.Cut(rest, ":")
	if !ok || !validation.IsIdentifier(maleID) {
		return "", 0, false
	}
	offset, err := strconv.Atoi(off)
	if err != nil || offset < 0 {
		return "", 0, false
	}
	return maleID, offset, true
}

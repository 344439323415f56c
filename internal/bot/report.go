package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iudanet/chatgate/internal/index"
	"github.com/iudanet/chatgate/internal/sl"
)

// reportTTL is how long /report waits for the text
const reportTTL = 10 * time.Minute

type pendingReport struct {
	expires  time.Time
	femaleID string
	chatID   int64
}

func (t *TgBot) report(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleReport(c, ctx.EffectiveUser, commandArgs(ctx.EffectiveMessage.Text))
	return nil
}

// handleReport: /report <female_id>. Finds the chat and waits for the report text.
func (t *TgBot) handleReport(ctx context.Context, user *tgbotapi.User, args []string) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}
	if len(args) != 1 {
		t.plainResponse(user.Id, tr(lang, "usage_report"))
		return
	}

	if _, err := t.svc.Identity.AllowedUser(ctx, user.Id); err != nil {
		t.reportError(user.Id, lang, "/report", err)
		return
	}

	chat, err := t.svc.Chats.ChatByFemaleID(ctx, args[0])
	if err != nil {
		t.reportError(user.Id, lang, "/report", err)
		return
	}

	t.reportsMu.Lock()
	t.reports[user.Id] = pendingReport{
		chatID:   chat.ChatID,
		femaleID: chat.FemaleID,
		expires:  t.now().Add(reportTTL),
	}
	t.reportsMu.Unlock()

	t.plainResponse(user.Id, tr(lang, "report_prompt", chat.FemaleID))
}

func (t *TgBot) cancelReport(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleCancel(c, ctx.EffectiveUser)
	return nil
}

func (t *TgBot) handleCancel(ctx context.Context, user *tgbotapi.User) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}
	if _, ok := t.takeReport(user.Id); !ok {
		t.plainResponse(user.Id, tr(lang, "nothing_to_cancel"))
		return
	}
	t.plainResponse(user.Id, tr(lang, "report_cancelled"))
}

// awaitsReport matches private non-command texts of users with a pending /report
func (t *TgBot) awaitsReport(msg *tgbotapi.Message) bool {
	if msg.Chat.Type != "private" || msg.From == nil {
		return false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return false
	}

	t.reportsMu.Lock()
	defer t.reportsMu.Unlock()
	_, ok := t.reports[msg.From.Id]
	return ok
}

func (t *TgBot) onReportText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleReportText(c, ctx.EffectiveUser, strings.TrimSpace(ctx.EffectiveMessage.Text))
	return nil
}

// handleReportText relays the text into the chat and indexes the sent message
// on behalf of the reporter
func (t *TgBot) handleReportText(ctx context.Context, user *tgbotapi.User, text string) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	pending, ok := t.takeReport(user.Id)
	if !ok {
		return
	}
	if t.now().After(pending.expires) {
		t.plainResponse(user.Id, tr(lang, "report_expired"))
		return
	}

	body := fmt.Sprintf("%s:\n\n%s", reportAuthor(user), text)
	msg, err := t.api.SendMessage(pending.chatID, body, &tgbotapi.SendMessageOpts{})
	if err != nil {
		t.log.Warn("relaying report",
			slog.Int64("chat_id", pending.chatID),
			slog.Int64("user_id", user.Id),
			sl.Err(err))
		t.plainResponse(user.Id, tr(lang, "report_failed"))
		return
	}

	date := time.Unix(msg.Date, 0).UTC()
	if msg.Date == 0 {
		date = t.now().UTC()
	}
	res, err := t.svc.Index.Report(ctx, index.Record{
		ChatID:          pending.chatID,
		MessageID:       msg.MessageId,
		Date:            date,
		Text:            body,
		SenderID:        user.Id,
		SenderUsername:  user.Username,
		SenderFirstName: user.FirstName,
	}, pending.femaleID)
	if err != nil {
		// сообщение уже в чате, повторять не нужно
		t.reportError(user.Id, lang, "report", err)
		return
	}

	if res.Rewarded {
		t.plainResponse(user.Id, tr(lang, "report_rewarded", res.Balance))
		return
	}
	t.plainResponse(user.Id, tr(lang, "report_sent"))
}

func (t *TgBot) takeReport(userID int64) (pendingReport, bool) {
	t.reportsMu.Lock()
	defer t.reportsMu.Unlock()

	p, ok := t.reports[userID]
	delete(t.reports, userID)
	return p, ok
}

func reportAuthor(user *tgbotapi.User) string {
	if user.Username != "" {
		return "Отчёт от @" + user.Username
	}
	if user.FirstName != "" {
		return "Отчёт от " + user.FirstName
	}
	return fmt.Sprintf("Отчёт от %d", user.Id)
}

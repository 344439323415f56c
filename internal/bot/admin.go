package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"github.com/iudanet/chatgate/internal/validation"
)

// adminCommand wraps a private admin-only command. The handler gets the arguments after the command.
func (t *TgBot) adminCommand(name string, handle func(ctx context.Context, user *tgbotapi.User, lang string, args []string)) func(*tgbotapi.Bot, *ext.Context) error {
	return func(_ *tgbotapi.Bot, ctx *ext.Context) error {
		if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
			return nil
		}
		c, cancel := requestContext()
		defer cancel()

		t.runAdmin(c, ctx.EffectiveUser, name, commandArgs(ctx.EffectiveMessage.Text), handle)
		return nil
	}
}

func (t *TgBot) runAdmin(ctx context.Context, user *tgbotapi.User, name string, args []string, handle func(context.Context, *tgbotapi.User, string, []string)) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}
	if err := t.svc.Identity.RequireAdmin(ctx, user.Id); err != nil {
		t.reportError(user.Id, lang, name, err)
		return
	}
	handle(ctx, user, lang, args)
}

func (t *TgBot) invite(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/invite", t.handleInvite)(b, ctx)
}

func (t *TgBot) secret(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/secret", t.handleSecret)(b, ctx)
}

func (t *TgBot) reserve(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/reserve", t.handleReserve)(b, ctx)
}

func (t *TgBot) grant(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/grant", t.handleGrant)(b, ctx)
}

func (t *TgBot) topup(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/topup", t.handleTopUp)(b, ctx)
}

func (t *TgBot) stats(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/stats", t.handleStats)(b, ctx)
}

func (t *TgBot) block(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/block", t.handleBlock)(b, ctx)
}

func (t *TgBot) unblock(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/unblock", t.handleUnblock)(b, ctx)
}

func (t *TgBot) admins(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/admins", t.handleAdmins)(b, ctx)
}

func (t *TgBot) addAdmin(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/addadmin", t.handleAddAdmin)(b, ctx)
}

func (t *TgBot) delAdmin(b *tgbotapi.Bot, ctx *ext.Context) error {
	return t.adminCommand("/deladmin", t.handleDelAdmin)(b, ctx)
}

// handleInvite mints a one-time token and answers with a deep link
func (t *TgBot) handleInvite(ctx context.Context, user *tgbotapi.User, lang string, _ []string) {
	token, _, err := t.svc.Invites.Mint(ctx, user.Id, 0)
	if err != nil {
		t.reportError(user.Id, lang, "/invite", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "invite_link", t.deepLink(token)))
}

func (t *TgBot) deepLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", t.username, token)
}

func (t *TgBot) handleSecret(ctx context.Context, user *tgbotapi.User, lang string, _ []string) {
	secret, err := t.svc.Chats.IssueSecret(ctx, user.Id)
	if err != nil {
		t.reportError(user.Id, lang, "/secret", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "secret_issued", secret))
}

func (t *TgBot) handleReserve(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	if len(args) != 1 {
		t.plainResponse(user.Id, tr(lang, "usage_reserve"))
		return
	}
	if err := t.svc.Identity.Reserve(ctx, user.Id, args[0]); err != nil {
		t.reportError(user.Id, lang, "/reserve", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "reserve_ok", validation.NormalizeUsername(args[0])))
}

// handleGrant: /grant <user_id> [credits]
func (t *TgBot) handleGrant(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	if len(args) < 1 || len(args) > 2 {
		t.plainResponse(user.Id, tr(lang, "usage_grant"))
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target <= 0 {
		t.plainResponse(user.Id, tr(lang, "usage_grant"))
		return
	}
	var credits int64
	if len(args) == 2 {
		credits, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			t.plainResponse(user.Id, tr(lang, "usage_grant"))
			return
		}
	}

	allowed, err := t.svc.Identity.Grant(ctx, user.Id, target, "", credits)
	if err != nil {
		t.reportError(user.Id, lang, "/grant", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "grant_ok", target, allowed.Credits))
}

// handleTopUp: /topup <user_id> <amount>
func (t *TgBot) handleTopUp(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	if len(args) != 2 {
		t.plainResponse(user.Id, tr(lang, "usage_topup"))
		return
	}
	target, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		t.plainResponse(user.Id, tr(lang, "usage_topup"))
		return
	}

	balance, err := t.svc.Credits.TopUp(ctx, user.Id, target, amount)
	if err != nil {
		t.reportError(user.Id, lang, "/topup", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "topup_ok", target, balance))
}

func (t *TgBot) handleStats(ctx context.Context, user *tgbotapi.User, lang string, _ []string) {
	st, err := t.svc.Index.Stats(ctx)
	if err != nil {
		t.reportError(user.Id, lang, "/stats", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "stats", st.Chats, st.Messages, st.MaleIDs, st.FemaleIDs))
}

// targetUser parses the single user id argument of a command
func targetUser(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// userCommand runs apply on the parsed target and answers with the ok text
func (t *TgBot) userCommand(ctx context.Context, user *tgbotapi.User, lang, name, usage, okKey string, args []string,
	apply func(ctx context.Context, actorID, userID int64) error,
) {
	target, ok := targetUser(args)
	if !ok {
		t.plainResponse(user.Id, tr(lang, usage))
		return
	}
	if err := apply(ctx, user.Id, target); err != nil {
		t.reportError(user.Id, lang, name, err)
		return
	}
	t.plainResponse(user.Id, tr(lang, okKey, target))
}

func (t *TgBot) handleBlock(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	t.userCommand(ctx, user, lang, "/block", "usage_block", "block_ok", args, t.svc.Identity.Block)
}

func (t *TgBot) handleUnblock(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	t.userCommand(ctx, user, lang, "/unblock", "usage_unblock", "unblock_ok", args, t.svc.Identity.Unblock)
}

// handleAddAdmin: /addadmin <user_id>, the service allows it to the owner only
func (t *TgBot) handleAddAdmin(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	t.userCommand(ctx, user, lang, "/addadmin", "usage_addadmin", "admin_added", args, t.svc.Identity.AddAdmin)
}

func (t *TgBot) handleDelAdmin(ctx context.Context, user *tgbotapi.User, lang string, args []string) {
	t.userCommand(ctx, user, lang, "/deladmin", "usage_deladmin", "admin_removed", args, t.svc.Identity.RemoveAdmin)
}

func (t *TgBot) handleAdmins(ctx context.Context, user *tgbotapi.User, lang string, _ []string) {
	admins, err := t.svc.Identity.ListAdmins(ctx)
	if err != nil {
		t.reportError(user.Id, lang, "/admins", err)
		return
	}

	var sb strings.Builder
	sb.WriteString(tr(lang, "admins_header"))
	for _, a := range admins {
		sb.WriteString("\n")
		sb.WriteString(strconv.FormatInt(a.UserID, 10))
		if a.Username != "" {
			sb.WriteString(" @" + a.Username)
		}
	}
	t.plainResponse(user.Id, sb.String())
}

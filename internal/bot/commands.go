package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const historyLimit = 10

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	payload := ""
	if args := commandArgs(ctx.EffectiveMessage.Text); len(args) > 0 {
		payload = args[0]
	}
	t.handleStart(c, ctx.EffectiveUser, payload)
	return nil
}

// handleStart registers the contact. A deep-link payload is an invitation token.
func (t *TgBot) handleStart(ctx context.Context, user *tgbotapi.User, payload string) {
	lang, activated, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	if payload != "" {
		allowed, err := t.svc.Invites.Redeem(ctx, payload, user.Id, user.Username)
		if err != nil {
			t.reportError(user.Id, lang, "/start redeem", err)
			return
		}
		t.plainResponse(user.Id, tr(lang, "redeem_ok", allowed.Credits))
		return
	}

	if activated {
		balance, err := t.svc.Credits.Balance(ctx, user.Id)
		if err != nil {
			t.reportError(user.Id, lang, "/start balance", err)
			return
		}
		t.plainResponse(user.Id, tr(lang, "reserved_ok", balance))
		return
	}

	if _, err := t.svc.Identity.AllowedUser(ctx, user.Id); err != nil {
		t.plainResponse(user.Id, tr(lang, "welcome_guest"))
		return
	}
	t.plainResponse(user.Id, tr(lang, "welcome"))
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	lang, _, ok := t.checkIn(c, ctx.EffectiveUser)
	if !ok {
		return nil
	}
	t.plainResponse(ctx.EffectiveUser.Id, tr(lang, "welcome"))
	return nil
}

func (t *TgBot) lang(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleLang(c, ctx.EffectiveUser)
	return nil
}

// handleLang toggles between russian and ukrainian
func (t *TgBot) handleLang(ctx context.Context, user *tgbotapi.User) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	next := langUK
	if lang == langUK {
		next = langRU
	}
	if err := t.svc.Identity.SetLang(ctx, user.Id, next); err != nil {
		t.reportError(user.Id, lang, "/lang", err)
		return
	}
	t.plainResponse(user.Id, tr(next, "lang_set"))
}

func (t *TgBot) balance(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleBalance(c, ctx.EffectiveUser)
	return nil
}

func (t *TgBot) handleBalance(ctx context.Context, user *tgbotapi.User) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	balance, err := t.svc.Credits.Balance(ctx, user.Id)
	if err != nil {
		t.reportError(user.Id, lang, "/balance", err)
		return
	}
	t.plainResponse(user.Id, tr(lang, "balance", balance))
}

func (t *TgBot) history(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx.EffectiveChat) || ctx.EffectiveUser == nil {
		return nil
	}
	c, cancel := requestContext()
	defer cancel()

	t.handleHistory(c, ctx.EffectiveUser)
	return nil
}

// handleHistory lists the latest searches, newest first
func (t *TgBot) handleHistory(ctx context.Context, user *tgbotapi.User) {
	lang, _, ok := t.checkIn(ctx, user)
	if !ok {
		return
	}

	entries, err := t.svc.History.ListSearches(ctx, user.Id, historyLimit)
	if err != nil {
		t.reportError(user.Id, lang, "/history", err)
		return
	}
	if len(entries) == 0 {
		t.plainResponse(user.Id, tr(lang, "history_empty"))
		return
	}

	var sb strings.Builder
	sb.WriteString(tr(lang, "history_header"))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n%s  %s", e.CreatedAt.Local().Format(time.DateTime), e.QueryValue))
	}
	t.plainResponse(user.Id, sb.String())
}

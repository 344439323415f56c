package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/audit"
	"github.com/iudanet/chatgate/internal/chatauth"
	"github.com/iudanet/chatgate/internal/credit"
	"github.com/iudanet/chatgate/internal/gate"
	"github.com/iudanet/chatgate/internal/identity"
	"github.com/iudanet/chatgate/internal/index"
	"github.com/iudanet/chatgate/internal/invite"
	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/ratelimit"
	"github.com/iudanet/chatgate/internal/server/storage/sqlite"
)

const (
	ownerID   = int64(1)
	userID    = int64(2)
	groupID   = int64(-100500)
	maleID    = "5550001112"
	botName   = "chatgate_bot"
	groupName = "Анкета 1234567890"
)

type sent struct {
	markup *tgbotapi.InlineKeyboardMarkup
	text   string
	chatID int64
}

type copied struct {
	to, from, messageID int64
}

// fakeSender records outgoing calls instead of talking to Telegram
type fakeSender struct {
	mu       sync.Mutex
	messages []sent
	copies   []copied
	members  map[int64]tgbotapi.ChatMember
	copyErr  error
	sendErr  map[int64]error // ошибка отправки по chat id
	lastID   int64
}

func (f *fakeSender) SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := sent{chatID: chatId, text: text}
	if opts != nil {
		if kb, ok := opts.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			s.markup = &kb
		}
	}
	if err := f.sendErr[chatId]; err != nil {
		return nil, err
	}
	f.messages = append(f.messages, s)
	f.lastID++
	return &tgbotapi.Message{MessageId: f.lastID, Text: text, Chat: tgbotapi.Chat{Id: chatId}}, nil
}

// to returns the texts sent to the chat
func (f *fakeSender) to(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.messages {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

func (f *fakeSender) CopyMessage(chatId int64, fromChatId int64, messageId int64, _ *tgbotapi.CopyMessageOpts) (*tgbotapi.MessageId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	f.copies = append(f.copies, copied{to: chatId, from: fromChatId, messageID: messageId})
	return &tgbotapi.MessageId{MessageId: messageId}, nil
}

func (f *fakeSender) GetChatMember(_ int64, userId int64, _ *tgbotapi.GetChatMemberOpts) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[userId]; ok {
		return m, nil
	}
	return tgbotapi.ChatMemberLeft{}, nil
}

func (f *fakeSender) AnswerCallbackQuery(string, *tgbotapi.AnswerCallbackQueryOpts) (bool, error) {
	return true, nil
}

func (f *fakeSender) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return sent{}
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	f.copies = nil
}

type testBot struct {
	bot     *TgBot
	api     *fakeSender
	store   *sqlite.Storage
	ids     *identity.Service
	invites *invite.Authority
	credits *credit.Ledger
	chats   *chatauth.Service
	idx     *index.Index
}

func setupBot(t *testing.T, pageSize int) *testBot {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	recorder, err := audit.NewRecorder(store, "", logger)
	require.NoError(t, err)

	ids := identity.New(store, recorder, logger, 100)
	require.NoError(t, ids.BootstrapOwner(ctx, ownerID, 1000))

	invites := invite.New(store, recorder, logger, invite.Config{DefaultTTL: time.Hour, DefaultCredits: 100})
	require.NoError(t, invites.SetQuota(ctx, ownerID, ownerID, 5))

	limiter := ratelimit.New(store, recorder, logger, ratelimit.Policy{BurstLimit: 30, BurstWindow: time.Minute, AutoBan: 15 * time.Minute})
	credits := credit.New(store, recorder, logger)
	g := gate.New(store, credits, limiter, recorder, logger, gate.Config{SearchCost: 1})
	chats := chatauth.New(store, recorder, logger, 24*time.Hour)
	idx := index.New(store, g, recorder, logger, 1)

	api := &fakeSender{members: map[int64]tgbotapi.ChatMember{}}
	b := newTgBot(api, botName, Services{
		Identity: ids,
		Invites:  invites,
		Gate:     g,
		Credits:  credits,
		Index:    idx,
		Chats:    chats,
		History:  store,
	}, logger, Config{OwnerID: ownerID, PageSize: pageSize})

	return &testBot{bot: b, api: api, store: store, ids: ids, invites: invites, credits: credits, chats: chats, idx: idx}
}

// allowGroup authorizes the test group directly
func (tb *testBot) allowGroup(t *testing.T) {
	t.Helper()
	_, err := tb.chats.AutoAuthorize(context.Background(), ownerID, groupID, groupName)
	require.NoError(t, err)
}

func groupMessage(id, from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageId: id,
		Date:      time.Date(2025, 5, 1, 10, 0, int(id), 0, time.UTC).Unix(),
		Chat:      tgbotapi.Chat{Id: groupID, Type: "supergroup", Title: groupName},
		From:      &tgbotapi.User{Id: from, FirstName: "Sender"},
		Text:      text,
	}
}

func TestHandleStart(t *testing.T) {
	ctx := context.Background()

	t.Run("guest", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.bot.handleStart(ctx, &tgbotapi.User{Id: userID, Username: "guest"}, "")
		assert.Equal(t, tr(langRU, "welcome_guest"), tb.api.last().text)
	})

	t.Run("invitation deep link", func(t *testing.T) {
		tb := setupBot(t, 5)
		token, _, err := tb.invites.Mint(ctx, ownerID, 0)
		require.NoError(t, err)

		tb.bot.handleStart(ctx, &tgbotapi.User{Id: userID, Username: "invited"}, token)
		assert.Equal(t, tr(langRU, "redeem_ok", 100), tb.api.last().text)

		balance, err := tb.credits.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), balance)

		// second use of the same link
		tb.bot.handleStart(ctx, &tgbotapi.User{Id: 3}, token)
		assert.Equal(t, tr(langRU, "token_used"), tb.api.last().text)
	})

	t.Run("reserved username", func(t *testing.T) {
		tb := setupBot(t, 5)
		require.NoError(t, tb.ids.Reserve(ctx, ownerID, "@Alice_1"))

		tb.bot.handleStart(ctx, &tgbotapi.User{Id: userID, Username: "alice_1"}, "")
		assert.Equal(t, tr(langRU, "reserved_ok", 100), tb.api.last().text)

		tb.bot.handleStart(ctx, &tgbotapi.User{Id: userID, Username: "alice_1"}, "")
		assert.Equal(t, tr(langRU, "welcome"), tb.api.last().text)
	})
}

func TestHandleLangAndBlocked(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	user := &tgbotapi.User{Id: userID}

	tb.bot.handleLang(ctx, user)
	assert.Equal(t, tr(langUK, "lang_set"), tb.api.last().text)

	tb.bot.handleBalance(ctx, user)
	assert.Equal(t, tr(langUK, "not_authorized"), tb.api.last().text)

	tb.bot.handleLang(ctx, user)
	assert.Equal(t, tr(langRU, "lang_set"), tb.api.last().text)

	require.NoError(t, tb.ids.Block(ctx, ownerID, userID))
	tb.api.reset()
	tb.bot.handleBalance(ctx, user)
	assert.Empty(t, tb.api.messages)
}

func TestSearchFlow(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 2)
	tb.allowGroup(t)

	_, err := tb.ids.Grant(ctx, ownerID, userID, "", 3)
	require.NoError(t, err)

	for i := int64(1); i <= 3; i++ {
		tb.bot.handleGroupMessage(ctx, groupMessage(i, ownerID, "парень "+maleID))
	}

	user := &tgbotapi.User{Id: userID}
	tb.api.reset()
	tb.bot.handleSearch(ctx, user, maleID)

	require.Len(t, tb.api.copies, 2)
	assert.Equal(t, copied{to: userID, from: groupID, messageID: 3}, tb.api.copies[0], "newest first")
	page := tb.api.last()
	assert.Equal(t, "2/3", page.text)
	require.NotNil(t, page.markup)
	data := page.markup.InlineKeyboard[0][0].CallbackData
	assert.Equal(t, "more:"+maleID+":2", data)

	balance, err := tb.credits.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)

	// paging does not charge
	tb.api.reset()
	tb.bot.handleMore(ctx, user, data)
	require.Len(t, tb.api.copies, 1)
	assert.Equal(t, "3/3", tb.api.last().text)

	balance, err = tb.credits.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)

	tb.bot.handleHistory(ctx, user)
	assert.Contains(t, tb.api.last().text, maleID)
}

func TestSearchDenied(t *testing.T) {
	ctx := context.Background()

	t.Run("not registered", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.bot.handleSearch(ctx, &tgbotapi.User{Id: userID}, maleID)
		assert.Equal(t, tr(langRU, "not_authorized"), tb.api.last().text)
		assert.Empty(t, tb.api.copies)
	})

	t.Run("no credits", func(t *testing.T) {
		tb := setupBot(t, 5)
		_, err := tb.ids.Grant(ctx, ownerID, userID, "", 1)
		require.NoError(t, err)

		tb.bot.handleSearch(ctx, &tgbotapi.User{Id: userID}, maleID)
		assert.Equal(t, tr(langRU, "search_not_found"), tb.api.last().text)

		tb.bot.handleSearch(ctx, &tgbotapi.User{Id: userID}, maleID)
		assert.Equal(t, tr(langRU, "no_credits"), tb.api.last().text)
	})

	t.Run("paging blocked for unknown user", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.bot.handleMore(ctx, &tgbotapi.User{Id: userID}, "more:"+maleID+":5")
		assert.Equal(t, tr(langRU, "not_authorized"), tb.api.last().text)
	})
}

func TestSendResultsFallsBackToText(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	tb.allowGroup(t)

	tb.bot.handleGroupMessage(ctx, groupMessage(7, ownerID, "текст "+maleID))
	tb.api.copyErr = errors.New("message to copy not found")
	tb.api.reset()

	tb.bot.sendResults(ctx, ownerID, langRU, maleID, 0)
	require.Len(t, tb.api.messages, 2)
	assert.Equal(t, "текст "+maleID, tb.api.messages[0].text)
	assert.Equal(t, "1/1", tb.api.messages[1].text)
}

func TestGroupIngestion(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)

	_, err := tb.ids.Grant(ctx, ownerID, userID, "", 10)
	require.NoError(t, err)

	// not authorized yet: ignored
	tb.bot.handleGroupMessage(ctx, groupMessage(1, userID, "id "+maleID))
	count, err := tb.idx.Count(ctx, maleID)
	require.NoError(t, err)
	assert.Zero(t, count)

	tb.allowGroup(t)
	tb.bot.handleGroupMessage(ctx, groupMessage(2, userID, "id "+maleID))
	tb.bot.handleGroupMessage(ctx, groupMessage(3, userID, "без номера"))

	count, err = tb.idx.Count(ctx, maleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	balance, err := tb.credits.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), balance, "contributor rewarded once")

	// edit moves the message to another identifier
	tb.bot.handleEdit(ctx, groupMessage(2, userID, "id 5550009999"))
	count, err = tb.idx.Count(ctx, maleID)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = tb.idx.Count(ctx, "5550009999")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	balance, err = tb.credits.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), balance, "edits are not rewarded")
}

func TestRecordFrom(t *testing.T) {
	msg := &tgbotapi.Message{
		MessageId: 42,
		Date:      1700000000,
		Chat:      tgbotapi.Chat{Id: groupID, Type: "group"},
		From:      &tgbotapi.User{Id: userID, Username: "bob", FirstName: "Bob"},
		Text:      "ignored",
		Caption:   "фото " + maleID,
		Photo: []tgbotapi.PhotoSize{
			{FileId: "small"},
			{FileId: "large"},
		},
	}

	rec := recordFrom(msg)
	assert.Equal(t, index.Record{
		Date:            time.Unix(1700000000, 0).UTC(),
		SenderUsername:  "bob",
		SenderFirstName: "Bob",
		Text:            "фото " + maleID,
		MediaType:       "photo",
		FileID:          "large",
		ChatID:          groupID,
		MessageID:       42,
		SenderID:        userID,
	}, rec)
}

func TestAdminCommands(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	owner := &tgbotapi.User{Id: ownerID}

	tb.bot.runAdmin(ctx, &tgbotapi.User{Id: userID}, "/invite", nil, tb.bot.handleInvite)
	assert.Equal(t, tr(langRU, "not_admin"), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/invite", nil, tb.bot.handleInvite)
	assert.Contains(t, tb.api.last().text, "https://t.me/"+botName+"?start=")

	tb.bot.runAdmin(ctx, owner, "/reserve", []string{"@Carol"}, tb.bot.handleReserve)
	assert.Equal(t, tr(langRU, "reserve_ok", "carol"), tb.api.last().text)
	tb.bot.runAdmin(ctx, owner, "/reserve", []string{"carol"}, tb.bot.handleReserve)
	assert.Equal(t, tr(langRU, "reserved_exists"), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/grant", []string{"7", "25"}, tb.bot.handleGrant)
	assert.Equal(t, tr(langRU, "grant_ok", 7, 25), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/topup", []string{"7", "5"}, tb.bot.handleTopUp)
	assert.Equal(t, tr(langRU, "topup_ok", 7, 30), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/topup", []string{"7", "-5"}, tb.bot.handleTopUp)
	assert.Equal(t, tr(langRU, "bad_request"), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/grant", []string{"x"}, tb.bot.handleGrant)
	assert.Equal(t, tr(langRU, "usage_grant"), tb.api.last().text)

	tb.bot.runAdmin(ctx, owner, "/stats", nil, tb.bot.handleStats)
	assert.True(t, strings.HasPrefix(tb.api.last().text, "Чатов: 0"))
}

func TestAdminManagementCommands(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	owner := &tgbotapi.User{Id: ownerID}
	admin := &tgbotapi.User{Id: 5}

	tests := []struct {
		name   string
		user   *tgbotapi.User
		cmd    string
		args   []string
		handle func(context.Context, *tgbotapi.User, string, []string)
		want   string
	}{
		{"non admin cannot add admins", admin, "/addadmin", []string{"5"}, tb.bot.handleAddAdmin, tr(langRU, "not_admin")},
		{"usage", owner, "/addadmin", []string{"x"}, tb.bot.handleAddAdmin, tr(langRU, "usage_addadmin")},
		{"owner adds admin", owner, "/addadmin", []string{"5"}, tb.bot.handleAddAdmin, tr(langRU, "admin_added", 5)},
		{"admin cannot add admins", admin, "/addadmin", []string{"6"}, tb.bot.handleAddAdmin, tr(langRU, "owner_only")},
		{"admin cannot remove admins", admin, "/deladmin", []string{"5"}, tb.bot.handleDelAdmin, tr(langRU, "owner_only")},
		{"owner cannot be removed", owner, "/deladmin", []string{"1"}, tb.bot.handleDelAdmin, tr(langRU, "owner_only")},
		{"admin lists admins", admin, "/admins", nil, tb.bot.handleAdmins, tr(langRU, "admins_header") + "\n1\n5"},
		{"admin blocks a user", admin, "/block", []string{"2"}, tb.bot.handleBlock, tr(langRU, "block_ok", 2)},
		{"unknown user cannot be blocked", admin, "/block", []string{"404"}, tb.bot.handleBlock, tr(langRU, "not_authorized")},
		{"block usage", admin, "/block", nil, tb.bot.handleBlock, tr(langRU, "usage_block")},
		{"admin unblocks a user", admin, "/unblock", []string{"2"}, tb.bot.handleUnblock, tr(langRU, "unblock_ok", 2)},
		{"owner removes admin", owner, "/deladmin", []string{"5"}, tb.bot.handleDelAdmin, tr(langRU, "admin_removed", 5)},
		{"removed admin is not admin", admin, "/admins", nil, tb.bot.handleAdmins, tr(langRU, "not_admin")},
	}

	// профиль пользователя 2 должен существовать для /block
	tb.bot.handleBalance(ctx, &tgbotapi.User{Id: userID})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb.bot.runAdmin(ctx, tt.user, tt.cmd, tt.args, tt.handle)
			assert.Equal(t, tt.want, tb.api.last().text)
		})
	}
}

func TestBlockCommandSilencesUser(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	user := &tgbotapi.User{Id: userID}

	tb.bot.handleBalance(ctx, user)
	tb.bot.runAdmin(ctx, &tgbotapi.User{Id: ownerID}, "/block", []string{"2"}, tb.bot.handleBlock)
	assert.Equal(t, tr(langRU, "block_ok", 2), tb.api.last().text)

	tb.api.reset()
	tb.bot.handleBalance(ctx, user)
	assert.Empty(t, tb.api.messages)
}

func TestReportFlow(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	tb.allowGroup(t)
	user := &tgbotapi.User{Id: userID, Username: "anna", FirstName: "Anna"}

	_, err := tb.ids.Grant(ctx, ownerID, userID, "", 3)
	require.NoError(t, err)

	tb.bot.handleReport(ctx, user, []string{"1234567890"})
	assert.Equal(t, tr(langRU, "report_prompt", "1234567890"), tb.api.last().text)
	assert.True(t, tb.bot.awaitsReport(&tgbotapi.Message{Chat: tgbotapi.Chat{Type: "private"}, From: user, Text: "всё ок"}))
	assert.False(t, tb.bot.awaitsReport(&tgbotapi.Message{Chat: tgbotapi.Chat{Type: "private"}, From: user, Text: "/balance"}))

	tb.bot.handleReportText(ctx, user, "встреча с "+maleID+" прошла хорошо")

	relayed := tb.api.to(groupID)
	require.Len(t, relayed, 1)
	assert.Equal(t, "Отчёт от @anna:\n\nвстреча с "+maleID+" прошла хорошо", relayed[0])
	assert.Equal(t, tr(langRU, "report_rewarded", 4), tb.api.last().text)

	// отправленный отчёт попадает в индекс
	n, err := tb.idx.Count(ctx, maleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := tb.store.ListAudit(ctx, models.AuditFilter{Action: models.ActionReport})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, userID, entries[0].ActorID)
	assert.Equal(t, "1234567890", entries[0].Target)

	// состояние сброшено, следующий текст не уходит в чат
	assert.False(t, tb.bot.awaitsReport(&tgbotapi.Message{Chat: tgbotapi.Chat{Type: "private"}, From: user, Text: "ещё"}))
}

func TestReportErrors(t *testing.T) {
	ctx := context.Background()
	user := &tgbotapi.User{Id: userID, Username: "anna"}

	t.Run("unregistered user", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.allowGroup(t)
		tb.bot.handleReport(ctx, user, []string{"1234567890"})
		assert.Equal(t, tr(langRU, "not_authorized"), tb.api.last().text)
	})

	t.Run("usage and unknown chat", func(t *testing.T) {
		tb := setupBot(t, 5)
		_, err := tb.ids.Grant(ctx, ownerID, userID, "", 3)
		require.NoError(t, err)

		tb.bot.handleReport(ctx, user, nil)
		assert.Equal(t, tr(langRU, "usage_report"), tb.api.last().text)

		tb.bot.handleReport(ctx, user, []string{"1234567890"})
		assert.Equal(t, tr(langRU, "chat_not_found"), tb.api.last().text)

		tb.bot.handleReport(ctx, user, []string{"123"})
		assert.Equal(t, tr(langRU, "bad_request"), tb.api.last().text)
	})

	t.Run("expired and cancelled", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.allowGroup(t)
		_, err := tb.ids.Grant(ctx, ownerID, userID, "", 3)
		require.NoError(t, err)

		now := time.Now()
		tb.bot.now = func() time.Time { return now }
		tb.bot.handleReport(ctx, user, []string{"1234567890"})
		now = now.Add(reportTTL + time.Second)
		tb.bot.handleReportText(ctx, user, "поздно")
		assert.Equal(t, tr(langRU, "report_expired"), tb.api.last().text)
		assert.Empty(t, tb.api.to(groupID))

		tb.bot.handleReport(ctx, user, []string{"1234567890"})
		tb.bot.handleCancel(ctx, user)
		assert.Equal(t, tr(langRU, "report_cancelled"), tb.api.last().text)
		tb.bot.handleCancel(ctx, user)
		assert.Equal(t, tr(langRU, "nothing_to_cancel"), tb.api.last().text)
	})

	t.Run("relay failure", func(t *testing.T) {
		tb := setupBot(t, 5)
		tb.allowGroup(t)
		_, err := tb.ids.Grant(ctx, ownerID, userID, "", 3)
		require.NoError(t, err)
		tb.api.sendErr = map[int64]error{groupID: errors.New("forbidden")}

		tb.bot.handleReport(ctx, user, []string{"1234567890"})
		tb.bot.handleReportText(ctx, user, "текст")
		assert.Equal(t, tr(langRU, "report_failed"), tb.api.last().text)

		balance, err := tb.credits.Balance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), balance)
	})
}

func TestAuthorizeInGroup(t *testing.T) {
	ctx := context.Background()
	tb := setupBot(t, 5)
	chat := &tgbotapi.Chat{Id: groupID, Type: "supergroup", Title: groupName}
	owner := &tgbotapi.User{Id: ownerID}

	tb.bot.runAdmin(ctx, owner, "/secret", nil, tb.bot.handleSecret)
	secret := strings.TrimPrefix(tb.api.last().text, "Отправь в группе: /authorize ")
	require.Len(t, secret, 8)

	// not a group admin: the secret survives
	tb.api.members[ownerID] = tgbotapi.ChatMemberMember{}
	tb.bot.handleAuthorize(ctx, chat, owner, []string{secret})
	assert.Equal(t, tr(langRU, "group_admin_only"), tb.api.last().text)

	tb.api.members[ownerID] = tgbotapi.ChatMemberOwner{}
	tb.bot.handleAuthorize(ctx, chat, owner, []string{strings.ToLower(secret)})
	assert.Equal(t, tr(langRU, "authorize_ok", "1234567890"), tb.api.last().text)

	tb.bot.handleAuthorize(ctx, chat, owner, []string{secret})
	assert.Equal(t, tr(langRU, "secret_not_found"), tb.api.last().text)

	tb.bot.handleUnauthorize(ctx, chat, &tgbotapi.User{Id: userID})
	assert.Equal(t, tr(langRU, "owner_only"), tb.api.last().text)

	tb.bot.handleUnauthorize(ctx, chat, owner)
	assert.Equal(t, tr(langRU, "unauthorize_ok"), tb.api.last().text)

	allowed, err := tb.chats.IsAllowed(ctx, groupID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHandleBotAdded(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		from      int64
		old       tgbotapi.ChatMember
		new       tgbotapi.ChatMember
		wantText  string
		wantAllow bool
	}{
		{
			name:      "added by admin",
			from:      ownerID,
			old:       tgbotapi.ChatMemberLeft{},
			new:       tgbotapi.ChatMemberMember{},
			wantText:  tr(langRU, "authorize_ok", "1234567890"),
			wantAllow: true,
		},
		{
			name:     "added by stranger",
			from:     userID,
			old:      tgbotapi.ChatMemberLeft{},
			new:      tgbotapi.ChatMemberMember{},
			wantText: tr(langRU, "authorize_hint"),
		},
		{
			name: "promoted, not added",
			from: ownerID,
			old:  tgbotapi.ChatMemberMember{},
			new:  tgbotapi.ChatMemberAdministrator{},
		},
		{
			name: "removed",
			from: ownerID,
			old:  tgbotapi.ChatMemberMember{},
			new:  tgbotapi.ChatMemberLeft{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := setupBot(t, 5)
			tb.bot.handleBotAdded(ctx, &tgbotapi.ChatMemberUpdated{
				Chat:          tgbotapi.Chat{Id: groupID, Type: "supergroup", Title: groupName},
				From:          tgbotapi.User{Id: tt.from},
				OldChatMember: tt.old,
				NewChatMember: tt.new,
			})

			assert.Equal(t, tt.wantText, tb.api.last().text)
			allowed, err := tb.chats.IsAllowed(ctx, groupID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllow, allowed)
		})
	}
}

func TestParseMore(t *testing.T) {
	tests := []struct {
		data       string
		wantID     string
		wantOffset int
		wantOK     bool
	}{
		{"more:" + maleID + ":5", maleID, 5, true},
		{"more:" + maleID + ":0", maleID, 0, true},
		{"more:" + maleID + ":-1", "", 0, false},
		{"more:123:5", "", 0, false},
		{"less:" + maleID + ":5", "", 0, false},
		{"more:" + maleID, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			id, offset, ok := parseMore(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestDenial(t *testing.T) {
	until := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"banned", &ledger.BannedError{Until: until}, tr(langRU, "banned", until.Local().Format(time.DateTime))},
		{"too soon", &ledger.TooSoonError{RetryAfter: 1400 * time.Millisecond}, tr(langRU, "rate_limited", "1s")},
		{"too soon rounds up to a second", &ledger.TooSoonError{RetryAfter: 10 * time.Millisecond}, tr(langRU, "rate_limited", "1s")},
		{"credits", ledger.ErrInsufficientCredits, tr(langRU, "no_credits")},
		{"owner only", fmt.Errorf("add admin: %w", ledger.ErrOwnerOnly), tr(langRU, "owner_only")},
		{"chat not found", ledger.ErrChatNotAllowed, tr(langRU, "chat_not_found")},
		{"invalid amount", ledger.ErrInvalidAmount, tr(langRU, "bad_request")},
		{"store", ledger.Unavailable("op", errors.New("disk")), tr(langRU, "try_again")},
		{"unknown", errors.New("boom"), tr(langRU, "try_again")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, denial(langRU, tt.err))
		})
	}
}

func TestTr(t *testing.T) {
	assert.Equal(t, "Баланс: 5.", tr(langRU, "balance", 5))
	assert.Equal(t, "Баланс: 5.", tr("en", "balance", 5))
	assert.Equal(t, "missing_key", tr(langUK, "missing_key"))

	for key := range texts[langRU] {
		_, ok := texts[langUK][key]
		assert.True(t, ok, "uk text missing for %s", key)
	}
}

var _ Sender = (*tgbotapi.Bot)(nil)
var _ History = (*sqlite.Storage)(nil)

// Package bot is the Telegram front of the ledger.
//
//   - tgbot.go   : TgBot, service interfaces, lifecycle (Start/Stop)
//   - commands.go: private commands: /start, /lang, /balance, /history, /help
//   - admin.go   : admin commands: /invite, /secret, /reserve, /grant, /topup, /stats,
//     /block, /unblock, /admins and the owner's /addadmin, /deladmin
//   - search.go  : ten-digit search messages and the "more" pagination callback
//   - report.go  : /report <female_id>, relays the next text into the chat, /cancel
//   - groups.go  : group ingestion, edits, /authorize, /unauthorize, bot added to a group
//   - helpers.go : replies, denial texts, record extraction
//
// Handlers only translate updates; every decision is made by the services.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"github.com/iudanet/chatgate/internal/gate"
	"github.com/iudanet/chatgate/internal/index"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/sl"
)

const requestTimeout = 30 * time.Second

// Sender is the part of the Bot API the handlers call. *gotgbot.Bot implements it.
type Sender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	CopyMessage(chatId int64, fromChatId int64, messageId int64, opts *tgbotapi.CopyMessageOpts) (*tgbotapi.MessageId, error)
	GetChatMember(chatId int64, userId int64, opts *tgbotapi.GetChatMemberOpts) (tgbotapi.ChatMember, error)
	AnswerCallbackQuery(callbackQueryId string, opts *tgbotapi.AnswerCallbackQueryOpts) (bool, error)
}

type Identity interface {
	Touch(ctx context.Context, profile *models.User) (bool, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	SetLang(ctx context.Context, userID int64, lang string) error
	RequireAdmin(ctx context.Context, userID int64) error
	AllowedUser(ctx context.Context, userID int64) (*models.AllowedUser, error)
	Reserve(ctx context.Context, adminID int64, username string) error
	Grant(ctx context.Context, adminID, userID int64, username string, credits int64) (*models.AllowedUser, error)
	Block(ctx context.Context, actorID, userID int64) error
	Unblock(ctx context.Context, actorID, userID int64) error
	AddAdmin(ctx context.Context, actorID, userID int64) error
	RemoveAdmin(ctx context.Context, actorID, userID int64) error
	ListAdmins(ctx context.Context) ([]*models.Admin, error)
}

type Invites interface {
	Mint(ctx context.Context, issuer int64, ttl time.Duration) (string, string, error)
	Redeem(ctx context.Context, token string, redeemer int64, username string) (*models.AllowedUser, error)
}

type Gate interface {
	Search(ctx context.Context, userID int64, maleID string) (gate.Decision, error)
}

type Credits interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	TopUp(ctx context.Context, adminID, userID, amount int64) (int64, error)
}

type Index interface {
	Ingest(ctx context.Context, rec index.Record) (index.Result, error)
	Edit(ctx context.Context, rec index.Record) ([]string, error)
	Report(ctx context.Context, rec index.Record, femaleID string) (index.Result, error)
	Lookup(ctx context.Context, maleID string, limit, offset int) ([]*models.Message, error)
	Count(ctx context.Context, maleID string) (int64, error)
	Stats(ctx context.Context) (models.IndexStats, error)
}

type Chats interface {
	IssueSecret(ctx context.Context, adminID int64) (string, error)
	Authorize(ctx context.Context, adminID int64, secret string, chatID int64, title string) (*models.AllowedChat, error)
	AutoAuthorize(ctx context.Context, inviterID, chatID int64, title string) (*models.AllowedChat, error)
	Unauthorize(ctx context.Context, actorID, chatID int64) error
	ChatByFemaleID(ctx context.Context, femaleID string) (*models.AllowedChat, error)
}

type History interface {
	ListSearches(ctx context.Context, userID int64, limit int) ([]*models.SearchLogEntry, error)
}

// Services groups everything the bot delegates to
type Services struct {
	Identity Identity
	Invites  Invites
	Gate     Gate
	Credits  Credits
	Index    Index
	Chats    Chats
	History  History
}

type Config struct {
	OwnerID     int64
	DefaultLang string
	// результатов на одну страницу выдачи
	PageSize int
}

type TgBot struct {
	log      *slog.Logger
	api      Sender
	bot      *tgbotapi.Bot
	mu       sync.Mutex // guards updater and stopped
	updater  *ext.Updater
	stopped  bool
	svc      Services
	now      func() time.Time
	username string
	config   Config

	reportsMu sync.Mutex
	reports   map[int64]pendingReport // ожидающие текст /report по user id
}

func NewTgBot(apiKey string, svc Services, log *slog.Logger, cfg Config) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %w", err)
	}

	t := newTgBot(api, api.Username, svc, log, cfg)
	t.bot = api
	return t, nil
}

func newTgBot(api Sender, username string, svc Services, log *slog.Logger, cfg Config) *TgBot {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.DefaultLang != langRU && cfg.DefaultLang != langUK {
		cfg.DefaultLang = langRU
	}
	return &TgBot{
		log:      log.With(sl.Module("tgbot")),
		api:      api,
		svc:      svc,
		now:      time.Now,
		username: username,
		config:   cfg,
		reports:  make(map[int64]pendingReport),
	}
}

// Start registers the handlers and polls until Stop is called
func (t *TgBot) Start() error {
	if t.bot == nil {
		return fmt.Errorf("bot api is not initialized")
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	// private commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("lang", t.lang))
	dispatcher.AddHandler(handlers.NewCommand("balance", t.balance))
	dispatcher.AddHandler(handlers.NewCommand("history", t.history))
	dispatcher.AddHandler(handlers.NewCommand("report", t.report))
	dispatcher.AddHandler(handlers.NewCommand("cancel", t.cancelReport))

	// admin commands
	dispatcher.AddHandler(handlers.NewCommand("invite", t.invite))
	dispatcher.AddHandler(handlers.NewCommand("secret", t.secret))
	dispatcher.AddHandler(handlers.NewCommand("reserve", t.reserve))
	dispatcher.AddHandler(handlers.NewCommand("grant", t.grant))
	dispatcher.AddHandler(handlers.NewCommand("topup", t.topup))
	dispatcher.AddHandler(handlers.NewCommand("stats", t.stats))
	dispatcher.AddHandler(handlers.NewCommand("block", t.block))
	dispatcher.AddHandler(handlers.NewCommand("unblock", t.unblock))
	dispatcher.AddHandler(handlers.NewCommand("admins", t.admins))
	dispatcher.AddHandler(handlers.NewCommand("addadmin", t.addAdmin))
	dispatcher.AddHandler(handlers.NewCommand("deladmin", t.delAdmin))

	// group commands
	dispatcher.AddHandler(handlers.NewCommand("authorize", t.authorize))
	dispatcher.AddHandler(handlers.NewCommand("unauthorize", t.unauthorize))

	dispatcher.AddHandler(handlers.NewMessage(t.awaitsReport, t.onReportText))
	dispatcher.AddHandler(handlers.NewMessage(isSearchQuery, t.search))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbMore), t.onMoreCallback))
	dispatcher.AddHandler(handlers.NewMessage(isGroupMessage, t.onGroupMessage).SetAllowEdited(true))
	dispatcher.AddHandler(handlers.NewMyChatMember(nil, t.onMyChatMember))

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	err := updater.StartPolling(t.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
			AllowedUpdates: []string{"message", "edited_message", "callback_query", "my_chat_member"},
		},
	})
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.updater = updater
	t.mu.Unlock()

	t.log.Info("telegram bot started", slog.String("username", t.username))
	updater.Idle()
	return nil
}

// Stop ends polling; a Start that has not begun polling yet returns immediately
func (t *TgBot) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

// requestContext bounds the service calls of one update
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

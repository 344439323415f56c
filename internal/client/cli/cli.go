// Package cli реализует команды ledgerctl поверх admin API chatgate.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/chatgate/internal/client/api"
	"github.com/iudanet/chatgate/internal/client/iocli"
	"github.com/iudanet/chatgate/internal/client/storage"
)

// APIKeyEnv - переменная окружения с admin API ключом
const APIKeyEnv = "CHATGATE_API_KEY"

// Store - локальное хранилище ledgerctl
type Store interface {
	storage.SessionStorage
	storage.TrailStorage
}

// KeySources - откуда читать API ключ при login, помимо окружения
type KeySources struct {
	FromFile string
}

type Cli struct {
	io        iocli.IO
	apiClient *api.Client
	store     Store
	now       func() time.Time
	serverURL string
	keys      KeySources
}

func New(io iocli.IO, apiClient *api.Client, store Store, serverURL string, keys KeySources) *Cli {
	return &Cli{
		io:        io,
		apiClient: apiClient,
		store:     store,
		serverURL: serverURL,
		keys:      keys,
		now:       time.Now,
	}
}

// getAPIKey читает ключ с приоритетом:
// 1. переменная окружения CHATGATE_API_KEY
// 2. файл из --api-key-file
// 3. интерактивный ввод без эха
func (c *Cli) getAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		return key, nil
	}

	if c.keys.FromFile != "" {
		content, err := os.ReadFile(c.keys.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read api key file: %w", err)
		}
		key := strings.TrimSpace(string(content))
		if key == "" {
			return "", fmt.Errorf("api key file is empty")
		}
		return key, nil
	}

	key, err := c.io.ReadSecret("API key: ")
	if err != nil {
		return "", fmt.Errorf("failed to read api key: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("api key cannot be empty")
	}
	return key, nil
}

// authorize поднимает сохраненную сессию и выставляет токен клиенту
func (c *Cli) authorize(ctx context.Context) (*storage.Session, error) {
	sess, err := c.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("not authenticated. Please run 'ledgerctl login' first")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess.ServerURL != c.serverURL {
		return nil, fmt.Errorf("session belongs to %s. Please run 'ledgerctl --server %s login'", sess.ServerURL, c.serverURL)
	}
	if c.now().Unix() >= sess.ExpiresAt {
		return nil, fmt.Errorf("session expired. Please run 'ledgerctl login' again")
	}

	c.apiClient.SetToken(sess.AccessToken)
	return sess, nil
}

func PrintUsage(io iocli.IO) {
	io.Println("chatgate ledgerctl")
	io.Println()
	io.Println("Usage:")
	io.Println("  ledgerctl [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  --version                Show version information")
	io.Println("  --server URL             Server URL (default: http://localhost:8080)")
	io.Println("  --db PATH                Path to session database (default: ledgerctl.db)")
	io.Println("  --api-key-file PATH      Path to file containing admin API key")
	io.Println()
	io.Println("API key priority (highest to lowest):")
	io.Println("  1. CHATGATE_API_KEY environment variable")
	io.Println("  2. --api-key-file (file path)")
	io.Println("  3. Interactive prompt (fallback)")
	io.Println()
	io.Println("Commands:")
	io.Println("  login                            Exchange API key for an access token")
	io.Println("  logout                           Forget the saved session")
	io.Println("  status                           Show session and server status")
	io.Println("  hash-key                         Print bcrypt hash of an API key for the server config")
	io.Println("  mint [-ttl 24h]                  Mint an invitation token")
	io.Println("  invitations                      List invitations of the current admin")
	io.Println("  quota <admin-id> [quota]         Show or set an admin's invitation quota")
	io.Println("  grant <user-id> [-username u] [-credits n]")
	io.Println("                                   Authorize a user directly")
	io.Println("  revoke <user-id>                 Remove a user's access")
	io.Println("  ban <user-id> [-for 1h]          Ban a user (forever when -for is omitted)")
	io.Println("  unban <user-id>                  Lift a ban")
	io.Println("  block <user-id>                  Make the bot ignore a user")
	io.Println("  unblock <user-id>                Lift a block")
	io.Println("  admins                           List admins")
	io.Println("  add-admin <user-id>              Make a user an admin (owner only)")
	io.Println("  remove-admin <user-id>           Revoke admin rights (owner only)")
	io.Println("  credits <user-id>                Show a user's balance")
	io.Println("  topup <user-id> <amount>         Add credits to a user")
	io.Println("  chats                            List authorized chats")
	io.Println("  secret                           Issue a one-time chat authorization secret")
	io.Println("  unauthorize <chat-id>            Remove a chat and its indexed messages")
	io.Println("  audit [-actor id] [-action a] [-since 24h] [-limit n] [-new]")
	io.Println("                                   Show the audit log")
	io.Println()
	io.Println("Examples:")
	io.Println("  export CHATGATE_API_KEY='...'")
	io.Println("  ledgerctl login")
	io.Println("  ledgerctl mint -ttl 48h")
	io.Println("  ledgerctl ban 123456789 -for 24h")
	io.Println("  ledgerctl audit -action ban_user -since 168h")
}

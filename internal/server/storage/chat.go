package storage

import (
	"context"
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

// ChatStorage defines interface for authorized chats and pending secrets
type ChatStorage interface {
	// UpsertAllowedChat authorizes chat or refreshes its title and female id
	UpsertAllowedChat(ctx context.Context, chat *models.AllowedChat) error

	// GetAllowedChat retrieves authorized chat
	// Returns ErrChatNotFound if chat is not authorized
	GetAllowedChat(ctx context.Context, chatID int64) (*models.AllowedChat, error)

	// FindChatByFemaleID returns the most recently authorized chat with the female id
	// Returns ErrChatNotFound if no authorized chat carries it
	FindChatByFemaleID(ctx context.Context, femaleID string) (*models.AllowedChat, error)

	// DeleteAllowedChat removes chat; its messages and legends cascade
	// Returns ErrChatNotFound if chat is not authorized
	DeleteAllowedChat(ctx context.Context, chatID int64) error

	// ListAllowedChats returns authorized chats; adminID 0 means all admins
	ListAllowedChats(ctx context.Context, adminID int64) ([]*models.AllowedChat, error)

	// SavePendingAuthorization stores a hashed chat authorization secret
	SavePendingAuthorization(ctx context.Context, p *models.PendingAuthorization) error

	// ConsumePendingAuthorization deletes the secret and returns it
	// Returns ErrSecretNotFound if secret is unknown or already consumed
	ConsumePendingAuthorization(ctx context.Context, secretHash string) (*models.PendingAuthorization, error)

	// DeletePendingAuthorizationsBefore removes secrets created before the given time
	DeletePendingAuthorizationsBefore(ctx context.Context, before time.Time) (int, error)
}

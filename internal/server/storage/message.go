package storage

import (
	"context"

	"github.com/iudanet/chatgate/internal/models"
)

// MessageStorage defines interface for the indexed messages
type MessageStorage interface {
	// SaveMessage inserts message once per (chat_id, message_id)
	// Returns row id and whether the row was newly inserted
	SaveMessage(ctx context.Context, msg *models.Message) (int64, bool, error)

	// GetMessageRowID resolves row id by chat and platform message id
	// Returns ErrMessageNotFound if message is not indexed
	GetMessageRowID(ctx context.Context, chatID, messageID int64) (int64, error)

	// UpdateMessageText replaces message text
	UpdateMessageText(ctx context.Context, rowID int64, text string) error

	// LinkMaleIDs links identifiers to message, duplicates are ignored
	LinkMaleIDs(ctx context.Context, rowID int64, maleIDs []string) error

	// UnlinkMaleIDs removes all identifier links of message
	UnlinkMaleIDs(ctx context.Context, rowID int64) error

	// SearchByMale returns messages from authorized chats referencing maleID, newest first
	SearchByMale(ctx context.Context, maleID string, limit, offset int) ([]*models.Message, error)

	// CountByMale counts messages from authorized chats referencing maleID
	CountByMale(ctx context.Context, maleID string) (int64, error)

	// Stats returns index totals
	Stats(ctx context.Context) (models.IndexStats, error)
}

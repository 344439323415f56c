package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
)

// UpsertAllowedChat authorizes chat or refreshes its title and female id.
// An upsert (not REPLACE) keeps indexed messages: REPLACE would cascade-delete them.
func (s *Storage) UpsertAllowedChat(ctx context.Context, chat *models.AllowedChat) error {
	query := `
		INSERT INTO allowed_chats (chat_id, title, female_id, added_by, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			title = excluded.title,
			female_id = excluded.female_id,
			added_by = excluded.added_by
	`

	_, err := s.conn(ctx).ExecContext(ctx, query,
		chat.ChatID,
		chat.Title,
		chat.FemaleID,
		chat.AddedBy,
		toMillis(chat.AddedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert allowed chat: %w", err)
	}

	return nil
}

// GetAllowedChat retrieves authorized chat
func (s *Storage) GetAllowedChat(ctx context.Context, chatID int64) (*models.AllowedChat, error) {
	query := `SELECT chat_id, title, female_id, added_by, added_at FROM allowed_chats WHERE chat_id = ?`
	return s.getAllowedChat(ctx, query, chatID)
}

// FindChatByFemaleID returns the newest authorized chat carrying the female id
func (s *Storage) FindChatByFemaleID(ctx context.Context, femaleID string) (*models.AllowedChat, error) {
	query := `
		SELECT chat_id, title, female_id, added_by, added_at
		FROM allowed_chats
		WHERE female_id = ?
		ORDER BY added_at DESC, chat_id
		LIMIT 1
	`
	return s.getAllowedChat(ctx, query, femaleID)
}

func (s *Storage) getAllowedChat(ctx context.Context, query string, arg any) (*models.AllowedChat, error) {
	chat := &models.AllowedChat{}
	var addedAt int64

	err := s.conn(ctx).QueryRowContext(ctx, query, arg).Scan(
		&chat.ChatID,
		&chat.Title,
		&chat.FemaleID,
		&chat.AddedBy,
		&addedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get allowed chat: %w", err)
	}

	chat.AddedAt = fromMillis(addedAt)

	return chat, nil
}

// DeleteAllowedChat removes chat together with its messages and legends
func (s *Storage) DeleteAllowedChat(ctx context.Context, chatID int64) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM allowed_chats WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete allowed chat: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrChatNotFound
	}

	return nil
}

// ListAllowedChats returns authorized chats; adminID 0 means all admins
func (s *Storage) ListAllowedChats(ctx context.Context, adminID int64) ([]*models.AllowedChat, error) {
	query := `SELECT chat_id, title, female_id, added_by, added_at FROM allowed_chats`
	args := []any{}
	if adminID != 0 {
		query += ` WHERE added_by = ?`
		args = append(args, adminID)
	}
	query += ` ORDER BY added_at DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allowed chats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chats []*models.AllowedChat

	for rows.Next() {
		chat := &models.AllowedChat{}
		var addedAt int64
		if err := rows.Scan(&chat.ChatID, &chat.Title, &chat.FemaleID, &chat.AddedBy, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allowed chat: %w", err)
		}
		chat.AddedAt = fromMillis(addedAt)
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return chats, nil
}

// SavePendingAuthorization stores a hashed chat authorization secret
func (s *Storage) SavePendingAuthorization(ctx context.Context, p *models.PendingAuthorization) error {
	query := `INSERT OR REPLACE INTO pending_authorizations (secret_hash, created_by, created_at) VALUES (?, ?, ?)`

	if _, err := s.conn(ctx).ExecContext(ctx, query, p.SecretHash, p.CreatedBy, toMillis(p.CreatedAt)); err != nil {
		return fmt.Errorf("failed to save pending authorization: %w", err)
	}

	return nil
}

// ConsumePendingAuthorization deletes the secret and returns it.
// DELETE ... RETURNING is a single statement, so only one caller gets the row.
func (s *Storage) ConsumePendingAuthorization(ctx context.Context, secretHash string) (*models.PendingAuthorization, error) {
	query := `
		DELETE FROM pending_authorizations
		WHERE secret_hash = ?
		RETURNING secret_hash, created_by, created_at
	`

	p := &models.PendingAuthorization{}
	var createdAt int64

	err := s.conn(ctx).QueryRowContext(ctx, query, secretHash).Scan(&p.SecretHash, &p.CreatedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to consume pending authorization: %w", err)
	}

	p.CreatedAt = fromMillis(createdAt)

	return p, nil
}

// DeletePendingAuthorizationsBefore removes secrets created before the given time
func (s *Storage) DeletePendingAuthorizationsBefore(ctx context.Context, before time.Time) (int, error) {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM pending_authorizations WHERE created_at < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending authorizations: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
)

// SaveMessage inserts message once per (chat_id, message_id)
func (s *Storage) SaveMessage(ctx context.Context, msg *models.Message) (int64, bool, error) {
	query := `
		INSERT INTO messages (chat_id, message_id, sender_id, sender_username, sender_first_name,
			date, text, media_type, file_id, is_forward)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, message_id) DO NOTHING
	`

	result, err := s.conn(ctx).ExecContext(ctx, query,
		msg.ChatID,
		msg.MessageID,
		msg.SenderID,
		msg.SenderUsername,
		msg.SenderFirstName,
		toMillis(msg.Date),
		msg.Text,
		msg.MediaType,
		msg.FileID,
		boolToInt(msg.IsForward),
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert message: %w", err)
	}

	inserted, err := rowsAffected(result)
	if err != nil {
		return 0, false, err
	}

	rowID, err := s.GetMessageRowID(ctx, msg.ChatID, msg.MessageID)
	if err != nil {
		return 0, false, err
	}

	return rowID, inserted > 0, nil
}

// GetMessageRowID resolves row id by chat and platform message id
func (s *Storage) GetMessageRowID(ctx context.Context, chatID, messageID int64) (int64, error) {
	var rowID int64
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id FROM messages WHERE chat_id = ? AND message_id = ?`, chatID, messageID,
	).Scan(&rowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrMessageNotFound
		}
		return 0, fmt.Errorf("failed to get message: %w", err)
	}

	return rowID, nil
}

// UpdateMessageText replaces message text
func (s *Storage) UpdateMessageText(ctx context.Context, rowID int64, text string) error {
	result, err := s.conn(ctx).ExecContext(ctx, `UPDATE messages SET text = ? WHERE id = ?`, text, rowID)
	if err != nil {
		return fmt.Errorf("failed to update message text: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrMessageNotFound
	}

	return nil
}

// LinkMaleIDs links identifiers to message, duplicates are ignored
func (s *Storage) LinkMaleIDs(ctx context.Context, rowID int64, maleIDs []string) error {
	query := `INSERT OR IGNORE INTO message_male_ids (message_id_ref, male_id) VALUES (?, ?)`

	for _, maleID := range maleIDs {
		if _, err := s.conn(ctx).ExecContext(ctx, query, rowID, maleID); err != nil {
			return fmt.Errorf("failed to link male id: %w", err)
		}
	}

	return nil
}

// UnlinkMaleIDs removes all identifier links of message
func (s *Storage) UnlinkMaleIDs(ctx context.Context, rowID int64) error {
	if _, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM message_male_ids WHERE message_id_ref = ?`, rowID); err != nil {
		return fmt.Errorf("failed to unlink male ids: %w", err)
	}

	return nil
}

// SearchByMale returns messages from authorized chats referencing maleID, newest first
func (s *Storage) SearchByMale(ctx context.Context, maleID string, limit, offset int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.message_id, m.sender_id, m.sender_username, m.sender_first_name,
			m.date, m.text, m.media_type, m.file_id, m.is_forward
		FROM messages m
		JOIN message_male_ids mm ON mm.message_id_ref = m.id
		JOIN allowed_chats ac ON ac.chat_id = m.chat_id
		WHERE mm.male_id = ?
		ORDER BY m.date DESC, m.id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.conn(ctx).QueryContext(ctx, query, maleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []*models.Message

	for rows.Next() {
		msg := &models.Message{}
		var date int64
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.MessageID,
			&msg.SenderID,
			&msg.SenderUsername,
			&msg.SenderFirstName,
			&date,
			&msg.Text,
			&msg.MediaType,
			&msg.FileID,
			&msg.IsForward,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Date = fromMillis(date)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return messages, nil
}

// CountByMale counts messages from authorized chats referencing maleID
func (s *Storage) CountByMale(ctx context.Context, maleID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN message_male_ids mm ON mm.message_id_ref = m.id
		JOIN allowed_chats ac ON ac.chat_id = m.chat_id
		WHERE mm.male_id = ?
	`

	var count int64
	if err := s.conn(ctx).QueryRowContext(ctx, query, maleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}

// Stats returns index totals
func (s *Storage) Stats(ctx context.Context) (models.IndexStats, error) {
	var stats models.IndexStats

	query := `
		SELECT
			(SELECT COUNT(DISTINCT male_id) FROM message_male_ids),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM allowed_chats),
			(SELECT COUNT(DISTINCT female_id) FROM allowed_chats)
	`

	err := s.conn(ctx).QueryRowContext(ctx, query).Scan(
		&stats.MaleIDs,
		&stats.Messages,
		&stats.Chats,
		&stats.FemaleIDs,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}

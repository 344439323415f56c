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

const allowedUserColumns = `user_id, username_lc, credits, banned_until, added_by, added_at`

func scanAllowedUser(scanner interface{ Scan(dest ...any) error }) (*models.AllowedUser, error) {
	user := &models.AllowedUser{}
	var bannedUntil sql.NullInt64
	var addedAt int64

	if err := scanner.Scan(
		&user.UserID,
		&user.UsernameLC,
		&user.Credits,
		&bannedUntil,
		&user.AddedBy,
		&addedAt,
	); err != nil {
		return nil, err
	}

	user.BannedUntil = timePtr(bannedUntil)
	user.AddedAt = fromMillis(addedAt)

	return user, nil
}

// UpsertAllowedUser creates the authorization or upgrades an existing one
func (s *Storage) UpsertAllowedUser(ctx context.Context, user *models.AllowedUser) (*models.AllowedUser, error) {
	query := `
		INSERT INTO allowed_users (user_id, username_lc, credits, added_by, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username_lc = CASE WHEN excluded.username_lc <> '' THEN excluded.username_lc ELSE allowed_users.username_lc END,
			credits = MAX(allowed_users.credits, excluded.credits),
			added_by = excluded.added_by
		RETURNING ` + allowedUserColumns

	saved, err := scanAllowedUser(s.conn(ctx).QueryRowContext(ctx, query,
		user.UserID,
		user.UsernameLC,
		user.Credits,
		user.AddedBy,
		toMillis(user.AddedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert allowed user: %w", err)
	}

	return saved, nil
}

// GetAllowedUser retrieves authorization by user id
func (s *Storage) GetAllowedUser(ctx context.Context, userID int64) (*models.AllowedUser, error) {
	query := `SELECT ` + allowedUserColumns + ` FROM allowed_users WHERE user_id = ?`

	user, err := scanAllowedUser(s.conn(ctx).QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAllowedUserNotFound
		}
		return nil, fmt.Errorf("failed to get allowed user: %w", err)
	}

	return user, nil
}

// DeleteAllowedUser removes the authorization (the profile stays)
func (s *Storage) DeleteAllowedUser(ctx context.Context, userID int64) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM allowed_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete allowed user: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrAllowedUserNotFound
	}

	return nil
}

// ListAllowedUsersByAdmin returns users granted by the admin, newest first
func (s *Storage) ListAllowedUsersByAdmin(ctx context.Context, adminID int64) ([]*models.AllowedUser, error) {
	query := `SELECT ` + allowedUserColumns + ` FROM allowed_users WHERE added_by = ? ORDER BY added_at DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allowed users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var users []*models.AllowedUser

	for rows.Next() {
		user, err := scanAllowedUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allowed user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return users, nil
}

// ChargeCredits decrements credits only if the balance covers amount.
// The condition lives in the UPDATE so two concurrent charges can't both pass.
func (s *Storage) ChargeCredits(ctx context.Context, userID, amount int64) (int64, error) {
	query := `
		UPDATE allowed_users
		SET credits = credits - ?
		WHERE user_id = ? AND credits >= ?
		RETURNING credits
	`

	var balance int64
	err := s.conn(ctx).QueryRowContext(ctx, query, amount, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to charge credits: %w", err)
	}

	// Строка не обновилась: либо пользователя нет, либо не хватает кредитов
	if _, err := s.GetAllowedUser(ctx, userID); err != nil {
		return 0, err
	}

	return 0, storage.ErrInsufficientCredits
}

// AddCredits increments credits and returns the new balance
func (s *Storage) AddCredits(ctx context.Context, userID, amount int64) (int64, error) {
	query := `UPDATE allowed_users SET credits = credits + ? WHERE user_id = ? RETURNING credits`

	var balance int64
	err := s.conn(ctx).QueryRowContext(ctx, query, amount, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrAllowedUserNotFound
		}
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}

	return balance, nil
}

// SetBannedUntil sets or clears (nil) the ban deadline
func (s *Storage) SetBannedUntil(ctx context.Context, userID int64, until *time.Time) error {
	query := `UPDATE allowed_users SET banned_until = ? WHERE user_id = ?`

	result, err := s.conn(ctx).ExecContext(ctx, query, nullMillis(until), userID)
	if err != nil {
		return fmt.Errorf("failed to set ban: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrAllowedUserNotFound
	}

	return nil
}

// GetLastAction returns last attempt time; ok is false if never recorded
func (s *Storage) GetLastAction(ctx context.Context, userID int64) (time.Time, bool, error) {
	var last int64
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT last_action_ts FROM ratelimits WHERE user_id = ?`, userID).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get last action: %w", err)
	}

	return fromMillis(last), true, nil
}

// TouchLastAction stores the attempt time
func (s *Storage) TouchLastAction(ctx context.Context, userID int64, at time.Time) error {
	query := `
		INSERT INTO ratelimits (user_id, last_action_ts) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_action_ts = excluded.last_action_ts
	`

	if _, err := s.conn(ctx).ExecContext(ctx, query, userID, toMillis(at)); err != nil {
		return fmt.Errorf("failed to touch last action: %w", err)
	}

	return nil
}

// DeleteRateLimitsBefore removes states older than before
func (s *Storage) DeleteRateLimitsBefore(ctx context.Context, before time.Time) (int, error) {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM ratelimits WHERE last_action_ts < ?`, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete rate limits: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

// LogSearch appends a search to the history
func (s *Storage) LogSearch(ctx context.Context, entry *models.SearchLogEntry) error {
	query := `INSERT INTO searches (user_id, query_type, query_value, created_at) VALUES (?, ?, ?, ?)`

	result, err := s.conn(ctx).ExecContext(ctx, query,
		entry.UserID,
		entry.QueryType,
		entry.QueryValue,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// CountSearchesSince counts user's searches of the given type after since
func (s *Storage) CountSearchesSince(ctx context.Context, userID int64, queryType string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM searches WHERE user_id = ? AND query_type = ? AND created_at > ?`

	var count int
	if err := s.conn(ctx).QueryRowContext(ctx, query, userID, queryType, toMillis(since)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}

	return count, nil
}

// ListSearches returns user's latest searches, newest first
func (s *Storage) ListSearches(ctx context.Context, userID int64, limit int) ([]*models.SearchLogEntry, error) {
	query := `
		SELECT id, user_id, query_type, query_value, created_at
		FROM searches
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.conn(ctx).QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.SearchLogEntry

	for rows.Next() {
		entry := &models.SearchLogEntry{}
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.QueryType, &entry.QueryValue, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

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

// UpsertUser creates the profile or refreshes its name fields
func (s *Storage) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name, lang, is_blocked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			updated_at = excluded.updated_at
	`

	_, err := s.conn(ctx).ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Lang,
		boolToInt(user.IsBlocked),
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetUser retrieves profile by platform id
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT user_id, username, first_name, last_name, lang, is_blocked, created_at, updated_at
		FROM users
		WHERE user_id = ?
	`

	user := &models.User{}
	var createdAt, updatedAt int64

	err := s.conn(ctx).QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Lang,
		&user.IsBlocked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)

	return user, nil
}

// SetUserLang sets interface language, creating an empty profile if needed
func (s *Storage) SetUserLang(ctx context.Context, userID int64, lang string) error {
	now := toMillis(time.Now())
	query := `
		INSERT INTO users (user_id, lang, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET lang = excluded.lang, updated_at = excluded.updated_at
	`

	if _, err := s.conn(ctx).ExecContext(ctx, query, userID, lang, now, now); err != nil {
		return fmt.Errorf("failed to set user lang: %w", err)
	}

	return nil
}

// SetUserBlocked toggles the soft block flag
func (s *Storage) SetUserBlocked(ctx context.Context, userID int64, blocked bool) error {
	query := `UPDATE users SET is_blocked = ?, updated_at = ? WHERE user_id = ?`

	result, err := s.conn(ctx).ExecContext(ctx, query, boolToInt(blocked), toMillis(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("failed to set user blocked: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// AddAdmin grants admin rights; adding an existing admin is a no-op
func (s *Storage) AddAdmin(ctx context.Context, userID, addedBy int64, at time.Time) error {
	query := `INSERT OR IGNORE INTO admins (user_id, added_by, created_at) VALUES (?, ?, ?)`

	if _, err := s.conn(ctx).ExecContext(ctx, query, userID, addedBy, toMillis(at)); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}

	return nil
}

// RemoveAdmin revokes admin rights
func (s *Storage) RemoveAdmin(ctx context.Context, userID int64) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM admins WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrAdminNotFound
	}

	return nil
}

// IsAdmin reports whether user is an admin
func (s *Storage) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT 1 FROM admins WHERE user_id = ?`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin: %w", err)
	}

	return true, nil
}

// ListAdmins returns all admins with their known usernames
func (s *Storage) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	query := `
		SELECT a.user_id, a.added_by, a.created_at, COALESCE(u.username, '')
		FROM admins a
		LEFT JOIN users u ON u.user_id = a.user_id
		ORDER BY a.user_id
	`

	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var admins []*models.Admin

	for rows.Next() {
		admin := &models.Admin{}
		var createdAt int64
		if err := rows.Scan(&admin.UserID, &admin.AddedBy, &createdAt, &admin.Username); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admin.CreatedAt = fromMillis(createdAt)
		admins = append(admins, admin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return admins, nil
}

// ReserveUsername stores a lowercased username reservation
func (s *Storage) ReserveUsername(ctx context.Context, usernameLC string, addedBy int64, at time.Time) error {
	query := `
		INSERT INTO reserved_usernames (username_lc, added_by, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(username_lc) DO NOTHING
	`

	result, err := s.conn(ctx).ExecContext(ctx, query, usernameLC, addedBy, toMillis(at))
	if err != nil {
		return fmt.Errorf("failed to reserve username: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrReservationExists
	}

	return nil
}

// ConsumeReservedUsername deletes the reservation and returns who created it
func (s *Storage) ConsumeReservedUsername(ctx context.Context, usernameLC string) (int64, error) {
	query := `DELETE FROM reserved_usernames WHERE username_lc = ? RETURNING added_by`

	var addedBy int64
	err := s.conn(ctx).QueryRowContext(ctx, query, usernameLC).Scan(&addedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrReservationNotFound
		}
		return 0, fmt.Errorf("failed to consume reservation: %w", err)
	}

	return addedBy, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
)

const invitationColumns = `token_hash, created_by, created_at, ttl_seconds, is_used, used_by, used_at`

func scanInvitation(scanner interface{ Scan(dest ...any) error }) (*models.Invitation, error) {
	inv := &models.Invitation{}
	var createdAt int64
	var usedBy, usedAt sql.NullInt64

	if err := scanner.Scan(
		&inv.TokenHash,
		&inv.CreatedBy,
		&createdAt,
		&inv.TTLSeconds,
		&inv.IsUsed,
		&usedBy,
		&usedAt,
	); err != nil {
		return nil, err
	}

	inv.CreatedAt = fromMillis(createdAt)
	inv.UsedAt = timePtr(usedAt)
	if usedBy.Valid {
		id := usedBy.Int64
		inv.UsedBy = &id
	}

	return inv, nil
}

// CreateInvitation inserts an unused invitation
func (s *Storage) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (token_hash, created_by, created_at, ttl_seconds, is_used)
		VALUES (?, ?, ?, ?, 0)
	`

	_, err := s.conn(ctx).ExecContext(ctx, query,
		inv.TokenHash,
		inv.CreatedBy,
		toMillis(inv.CreatedAt),
		inv.TTLSeconds,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: invitations.token_hash") {
			return storage.ErrInvitationExists
		}
		return fmt.Errorf("failed to insert invitation: %w", err)
	}

	return nil
}

// GetInvitation retrieves invitation by token hash
func (s *Storage) GetInvitation(ctx context.Context, tokenHash string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token_hash = ?`

	inv, err := scanInvitation(s.conn(ctx).QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// MarkInvitationUsed flips is_used only if it is still false.
// used_by and used_at are set in the same statement.
func (s *Storage) MarkInvitationUsed(ctx context.Context, tokenHash string, usedBy int64, at time.Time) error {
	query := `
		UPDATE invitations
		SET is_used = 1, used_by = ?, used_at = ?
		WHERE token_hash = ? AND is_used = 0
	`

	result, err := s.conn(ctx).ExecContext(ctx, query, usedBy, toMillis(at), tokenHash)
	if err != nil {
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		if _, err := s.GetInvitation(ctx, tokenHash); err != nil {
			return err
		}
		return storage.ErrInvitationUsed
	}

	return nil
}

// ListInvitationsByAdmin returns invitations minted by admin, newest first
func (s *Storage) ListInvitationsByAdmin(ctx context.Context, adminID int64) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE created_by = ? ORDER BY created_at DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var invitations []*models.Invitation

	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invitations, nil
}

// DeleteUnusedInvitationsExpiredBefore removes unused invitations whose TTL ended before the given time.
// Used invitations stay as redemption history.
func (s *Storage) DeleteUnusedInvitationsExpiredBefore(ctx context.Context, before time.Time) (int, error) {
	query := `DELETE FROM invitations WHERE is_used = 0 AND created_at + ttl_seconds * 1000 < ?`

	result, err := s.conn(ctx).ExecContext(ctx, query, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

// GetQuota returns admin counters; missing row means zero quota
func (s *Storage) GetQuota(ctx context.Context, adminID int64) (models.AdminInviteQuota, error) {
	q := models.AdminInviteQuota{AdminID: adminID}

	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT quota, used FROM admin_invite_quotas WHERE admin_id = ?`, adminID,
	).Scan(&q.Quota, &q.Used)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return q, fmt.Errorf("failed to get quota: %w", err)
	}

	return q, nil
}

// SetQuota sets the ceiling keeping used counter intact
func (s *Storage) SetQuota(ctx context.Context, adminID, quota int64) error {
	query := `
		INSERT INTO admin_invite_quotas (admin_id, quota, used) VALUES (?, ?, 0)
		ON CONFLICT(admin_id) DO UPDATE SET quota = excluded.quota
		WHERE excluded.quota >= admin_invite_quotas.used
	`

	result, err := s.conn(ctx).ExecContext(ctx, query, adminID, quota)
	if err != nil {
		return fmt.Errorf("failed to set quota: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrQuotaBelowUsed
	}

	return nil
}

// IncrementQuotaUsed increments used only while used < quota
func (s *Storage) IncrementQuotaUsed(ctx context.Context, adminID int64) error {
	query := `UPDATE admin_invite_quotas SET used = used + 1 WHERE admin_id = ? AND used < quota`

	result, err := s.conn(ctx).ExecContext(ctx, query, adminID)
	if err != nil {
		return fmt.Errorf("failed to increment quota usage: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if rows == 0 {
		return storage.ErrQuotaExhausted
	}

	return nil
}

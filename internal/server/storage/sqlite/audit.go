package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/chatgate/internal/models"
)

// AppendAudit inserts entry; an entry with the same id is ignored
func (s *Storage) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT OR IGNORE INTO audit_log (id, actor_id, action, target, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.Target,
		entry.Details,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListAudit returns entries matching filter, oldest first
func (s *Storage) ListAudit(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	var (
		where []string
		args  []any
	)

	if filter.ActorID != 0 {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toMillis(filter.Since))
	}

	query := `SELECT id, actor_id, action, target, details, created_at FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.AuditEntry

	for rows.Next() {
		entry := &models.AuditEntry{}
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.Target,
			&entry.Details,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

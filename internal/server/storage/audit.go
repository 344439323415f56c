package storage

import (
	"context"

	"github.com/iudanet/chatgate/internal/models"
)

// AuditStorage defines interface for the append-only audit log
type AuditStorage interface {
	// AppendAudit inserts entry; an entry with the same id is ignored
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error

	// ListAudit returns entries matching filter, oldest first
	ListAudit(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error)
}

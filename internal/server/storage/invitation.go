package storage

import (
	"context"
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

// InvitationStorage defines interface for invitation persistence
type InvitationStorage interface {
	// CreateInvitation inserts an unused invitation
	// Returns ErrInvitationExists on hash collision
	CreateInvitation(ctx context.Context, inv *models.Invitation) error

	// GetInvitation retrieves invitation by token hash
	// Returns ErrInvitationNotFound if hash is unknown
	GetInvitation(ctx context.Context, tokenHash string) (*models.Invitation, error)

	// MarkInvitationUsed flips is_used only if it is still false
	// Returns ErrInvitationUsed if another redeemer won, ErrInvitationNotFound if hash is unknown
	MarkInvitationUsed(ctx context.Context, tokenHash string, usedBy int64, at time.Time) error

	// ListInvitationsByAdmin returns invitations minted by admin, newest first
	ListInvitationsByAdmin(ctx context.Context, adminID int64) ([]*models.Invitation, error)

	// DeleteUnusedInvitationsExpiredBefore removes unused invitations whose TTL ended before the given time
	// Returns number of deleted invitations
	DeleteUnusedInvitationsExpiredBefore(ctx context.Context, before time.Time) (int, error)
}

// QuotaStorage defines interface for per-admin invite quotas
type QuotaStorage interface {
	// GetQuota returns admin counters; missing row means zero quota
	GetQuota(ctx context.Context, adminID int64) (models.AdminInviteQuota, error)

	// SetQuota sets the ceiling keeping used counter intact
	// Returns ErrQuotaBelowUsed if quota < used
	SetQuota(ctx context.Context, adminID, quota int64) error

	// IncrementQuotaUsed increments used only while used < quota
	// Returns ErrQuotaExhausted otherwise
	IncrementQuotaUsed(ctx context.Context, adminID int64) error
}

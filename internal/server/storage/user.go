package storage

import (
	"context"
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

// UserStorage defines interface for user profiles, admins and username reservations
type UserStorage interface {
	// UpsertUser creates the profile or refreshes its name fields
	// Lang and blocked flag are left untouched on update
	UpsertUser(ctx context.Context, user *models.User) error

	// GetUser retrieves profile by platform id
	// Returns ErrUserNotFound if user doesn't exist
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// SetUserLang sets interface language, creating an empty profile if needed
	SetUserLang(ctx context.Context, userID int64, lang string) error

	// SetUserBlocked toggles the soft block flag
	// Returns ErrUserNotFound if user doesn't exist
	SetUserBlocked(ctx context.Context, userID int64, blocked bool) error

	// AddAdmin grants admin rights; adding an existing admin is a no-op
	AddAdmin(ctx context.Context, userID, addedBy int64, at time.Time) error

	// RemoveAdmin revokes admin rights
	// Returns ErrAdminNotFound if user is not an admin
	RemoveAdmin(ctx context.Context, userID int64) error

	// IsAdmin reports whether user is an admin
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// ListAdmins returns all admins with their known usernames
	ListAdmins(ctx context.Context) ([]*models.Admin, error)

	// ReserveUsername stores a lowercased username reservation
	// Returns ErrReservationExists if already reserved
	ReserveUsername(ctx context.Context, usernameLC string, addedBy int64, at time.Time) error

	// ConsumeReservedUsername deletes the reservation and returns who created it
	// Returns ErrReservationNotFound if there is no reservation
	ConsumeReservedUsername(ctx context.Context, usernameLC string) (int64, error)
}

package storage

import (
	"context"
	"time"

	"github.com/iudanet/chatgate/internal/models"
)

// AllowedUserStorage defines interface for search authorizations and credit balances
type AllowedUserStorage interface {
	// UpsertAllowedUser creates the authorization or upgrades an existing one:
	// credits are raised to the given value if lower, username and added_by are refreshed
	UpsertAllowedUser(ctx context.Context, user *models.AllowedUser) (*models.AllowedUser, error)

	// GetAllowedUser retrieves authorization by user id
	// Returns ErrAllowedUserNotFound if user is not allowed
	GetAllowedUser(ctx context.Context, userID int64) (*models.AllowedUser, error)

	// DeleteAllowedUser removes the authorization (the profile stays)
	// Returns ErrAllowedUserNotFound if user is not allowed
	DeleteAllowedUser(ctx context.Context, userID int64) error

	// ListAllowedUsersByAdmin returns users granted by the admin, newest first
	ListAllowedUsersByAdmin(ctx context.Context, adminID int64) ([]*models.AllowedUser, error)

	// ChargeCredits decrements credits only if the balance covers amount
	// Returns the new balance, ErrInsufficientCredits or ErrAllowedUserNotFound
	ChargeCredits(ctx context.Context, userID, amount int64) (int64, error)

	// AddCredits increments credits and returns the new balance
	// Returns ErrAllowedUserNotFound if user is not allowed
	AddCredits(ctx context.Context, userID, amount int64) (int64, error)

	// SetBannedUntil sets or clears (nil) the ban deadline
	// Returns ErrAllowedUserNotFound if user is not allowed
	SetBannedUntil(ctx context.Context, userID int64, until *time.Time) error
}

// RateLimitStorage defines interface for per-user action timestamps
type RateLimitStorage interface {
	// GetLastAction returns last attempt time; ok is false if never recorded
	GetLastAction(ctx context.Context, userID int64) (last time.Time, ok bool, err error)

	// TouchLastAction stores the attempt time
	TouchLastAction(ctx context.Context, userID int64, at time.Time) error

	// DeleteRateLimitsBefore removes states older than before
	// Returns number of deleted rows
	DeleteRateLimitsBefore(ctx context.Context, before time.Time) (int, error)
}

// SearchLogStorage defines interface for the search history
type SearchLogStorage interface {
	// LogSearch appends a search to the history
	LogSearch(ctx context.Context, entry *models.SearchLogEntry) error

	// CountSearchesSince counts user's searches of the given type after since
	CountSearchesSince(ctx context.Context, userID int64, queryType string, since time.Time) (int, error)

	// ListSearches returns user's latest searches, newest first
	ListSearches(ctx context.Context, userID int64, limit int) ([]*models.SearchLogEntry, error)
}

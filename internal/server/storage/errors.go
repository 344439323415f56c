package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user profile was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrAdminNotFound indicates that user is not an admin
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAllowedUserNotFound indicates that user has no search authorization
	ErrAllowedUserNotFound = errors.New("allowed user not found")

	// ErrInsufficientCredits indicates that conditional charge did not match the row
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvitationNotFound indicates that invitation hash is unknown
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationExists indicates a hash collision on insert
	ErrInvitationExists = errors.New("invitation already exists")

	// ErrInvitationUsed indicates that the used flag was already flipped
	ErrInvitationUsed = errors.New("invitation already used")

	// ErrQuotaExhausted indicates that admin reached the invite quota
	ErrQuotaExhausted = errors.New("invite quota exhausted")

	// ErrQuotaBelowUsed indicates an attempt to set quota lower than already used
	ErrQuotaBelowUsed = errors.New("quota below used count")

	// ErrSecretNotFound indicates that pending authorization secret is unknown or consumed
	ErrSecretNotFound = errors.New("authorization secret not found")

	// ErrChatNotFound indicates that chat is not authorized
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound indicates that message is not indexed
	ErrMessageNotFound = errors.New("message not found")

	// ErrReservationExists indicates that username is already reserved
	ErrReservationExists = errors.New("username already reserved")

	// ErrReservationNotFound indicates that username has no reservation
	ErrReservationNotFound = errors.New("reservation not found")
)

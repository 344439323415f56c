// Package ledger holds the error taxonomy shared by the access and credit components.
//
// Every error except ErrStoreUnavailable is an expected business outcome: callers show it
// to the end user and must not log it as a system failure. ErrStoreUnavailable aborts the
// request (the transaction is rolled back) and is reported as a generic "try again".
package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotRegistered       = errors.New("user is not registered for search")
	ErrBanned              = errors.New("user is banned")
	ErrTooSoon             = errors.New("action attempted too soon")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrTokenNotFound       = errors.New("invitation token not found")
	ErrTokenExpired        = errors.New("invitation token expired")
	ErrTokenAlreadyUsed    = errors.New("invitation token already used")
	ErrQuotaExceeded       = errors.New("invite quota exceeded")
	ErrStoreUnavailable    = errors.New("store unavailable")

	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidQuota      = errors.New("invalid quota")
	ErrInvalidTTL        = errors.New("ttl must be positive")
	ErrSecretNotFound    = errors.New("authorization secret not found")
	ErrChatNotAllowed    = errors.New("chat is not authorized")
	ErrAlreadyReserved   = errors.New("username already reserved")
	ErrNotAdmin          = errors.New("user is not an admin")
	ErrOwnerOnly         = errors.New("only the owner can manage admins")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidIdentifier = errors.New("identifier must be exactly 10 digits")
)

// BannedError carries the moment the ban lifts. It matches ErrBanned.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("user is banned until %s", e.Until.Format(time.RFC3339))
}

func (e *BannedError) Is(target error) bool {
	return target == ErrBanned
}

// TooSoonError carries the remaining wait. It matches ErrTooSoon.
type TooSoonError struct {
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("action attempted too soon, retry after %s", e.RetryAfter)
}

func (e *TooSoonError) Is(target error) bool {
	return target == ErrTooSoon
}

// Unavailable wraps an unexpected store failure so that it matches ErrStoreUnavailable
// while keeping the cause for logs.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

var businessErrors = []error{
	ErrNotRegistered,
	ErrBanned,
	ErrTooSoon,
	ErrInsufficientCredits,
	ErrTokenNotFound,
	ErrTokenExpired,
	ErrTokenAlreadyUsed,
	ErrQuotaExceeded,
	ErrInvalidAmount,
	ErrInvalidQuota,
	ErrInvalidTTL,
	ErrSecretNotFound,
	ErrChatNotAllowed,
	ErrAlreadyReserved,
	ErrNotAdmin,
	ErrOwnerOnly,
	ErrInvalidUsername,
	ErrInvalidIdentifier,
}

// IsBusiness reports whether err is an expected outcome that should be shown to the user.
func IsBusiness(err error) bool {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return false
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that the user has not logged in
	ErrSessionNotFound = errors.New("session not found")

	// ErrTrailNotFound indicates that the audit log was never read for the server
	ErrTrailNotFound = errors.New("audit trail not found")
)

package storage

import "context"

// Transactor runs fn inside a single database transaction.
// Storage calls made with the ctx passed to fn join that transaction.
// If fn returns an error the transaction is rolled back, otherwise committed.
// Nested calls join the outer transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

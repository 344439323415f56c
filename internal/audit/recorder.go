// Package audit records sensitive state transitions.
//
// Recording never fails the caller: when the store rejects an entry it is written to a
// local bbolt spool and replayed later by Flush.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/iudanet/chatgate/internal/ledger"
	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
	"github.com/iudanet/chatgate/internal/sl"
)

var bucketPending = []byte("pending_audit")

// Recorder appends audit entries to the store.
type Recorder struct {
	store  storage.AuditStorage
	spool  *bolt.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder. An empty spoolPath disables spooling:
// entries the store rejects are only logged.
func NewRecorder(store storage.AuditStorage, spoolPath string, logger *slog.Logger) (*Recorder, error) {
	r := &Recorder{
		store:  store,
		logger: logger.With(sl.Module("audit")),
		now:    time.Now,
	}

	if spoolPath == "" {
		return r, nil
	}

	db, err := bolt.Open(spoolPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit spool: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPending)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create spool bucket: %w", err)
	}

	r.spool = db
	return r, nil
}

// SetClock replaces the time source, used by tests
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Close releases the spool file
func (r *Recorder) Close() error {
	if r.spool == nil {
		return nil
	}
	return r.spool.Close()
}

// Record appends an entry. It must be called after the caller's transaction committed,
// with a context that does not carry that transaction.
func (r *Recorder) Record(ctx context.Context, actorID int64, action, target, details string) {
	entry := &models.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Details:   details,
		CreatedAt: r.now().UTC(),
	}

	// запись аудита не должна зависеть от отмены запроса
	ctx = context.WithoutCancel(ctx)

	err := r.store.AppendAudit(ctx, entry)
	if err == nil {
		return
	}

	r.logger.WarnContext(ctx, "audit store rejected entry, spooling",
		slog.String("action", action),
		slog.Int64("actor_id", actorID),
		sl.Err(err))

	if err := r.spoolEntry(entry); err != nil {
		r.logger.ErrorContext(ctx, "audit entry lost",
			slog.String("id", entry.ID),
			slog.String("action", action),
			slog.Int64("actor_id", actorID),
			slog.String("target", target),
			sl.Err(err))
	}
}

func (r *Recorder) spoolEntry(entry *models.AuditEntry) error {
	if r.spool == nil {
		return fmt.Errorf("spool disabled")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	return r.spool.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPending).Put([]byte(entry.ID), data)
	})
}

// Pending returns the number of spooled entries
func (r *Recorder) Pending() (int, error) {
	if r.spool == nil {
		return 0, nil
	}

	var n int
	err := r.spool.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketPending).Stats().KeyN
		return nil
	})
	return n, err
}

// Flush replays spooled entries into the store and returns how many were written.
// Replays are idempotent: the store ignores ids it already has.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	if r.spool == nil {
		return 0, nil
	}

	var entries []*models.AuditEntry
	err := r.spool.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPending).ForEach(func(k, v []byte) error {
			var entry models.AuditEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				r.logger.ErrorContext(ctx, "corrupted spool entry", slog.String("id", string(k)), sl.Err(err))
				return nil
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read audit spool: %w", err)
	}

	var flushed []string
	for _, entry := range entries {
		if err := r.store.AppendAudit(ctx, entry); err != nil {
			r.logger.WarnContext(ctx, "audit replay stopped", slog.Int("flushed", len(flushed)), sl.Err(err))
			break
		}
		flushed = append(flushed, entry.ID)
	}

	if len(flushed) == 0 {
		return 0, nil
	}

	err = r.spool.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPending)
		for _, id := range flushed {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return len(flushed), fmt.Errorf("failed to trim audit spool: %w", err)
	}

	r.logger.InfoContext(ctx, "audit spool flushed", slog.Int("entries", len(flushed)))
	return len(flushed), nil
}

// List returns stored entries for reconstruction by operators
func (r *Recorder) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	entries, err := r.store.ListAudit(ctx, filter)
	if err != nil {
		return nil, ledger.Unavailable("list audit", err)
	}
	return entries, nil
}

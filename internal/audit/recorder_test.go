package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyStore fails AppendAudit while down is set
type flakyStore struct {
	entries map[string]*models.AuditEntry
	mu      sync.Mutex
	down    bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{entries: make(map[string]*models.AuditEntry)}
}

func (f *flakyStore) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errors.New("database is locked")
	}
	if _, ok := f.entries[entry.ID]; !ok {
		f.entries[entry.ID] = entry
	}
	return nil
}

func (f *flakyStore) ListAudit(_ context.Context, _ models.AuditFilter) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *flakyStore) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func TestRecorder_RecordToSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	rec, err := NewRecorder(store, "", testLogger())
	require.NoError(t, err)

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.SetClock(func() time.Time { return fixed })

	rec.Record(ctx, 42, models.ActionMint, "abc123", "ttl=3600")
	rec.Record(ctx, 42, models.ActionRedeem, "abc123", "")

	entries, err := rec.List(ctx, models.AuditFilter{ActorID: 42})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.ActionMint, entries[0].Action)
	assert.Equal(t, "abc123", entries[0].Target)
	assert.True(t, fixed.Equal(entries[0].CreatedAt))
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestRecorder_RecordIgnoresCancelledContext(t *testing.T) {
	store := newFlakyStore()
	rec, err := NewRecorder(store, "", testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec.Record(ctx, 1, models.ActionBan, "7", "")

	entries, err := rec.List(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecorder_SpoolAndFlush(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()

	rec, err := NewRecorder(store, filepath.Join(t.TempDir(), "spool.db"), testLogger())
	require.NoError(t, err)
	defer rec.Close()

	store.setDown(true)

	// Record не паникует и не возвращает ошибку
	rec.Record(ctx, 1, models.ActionGrant, "10", "credits=100")
	rec.Record(ctx, 1, models.ActionRevoke, "10", "")

	pending, err := rec.Pending()
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	// пока стор недоступен, flush ничего не теряет
	n, err := rec.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	store.setDown(false)

	n, err = rec.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err = rec.Pending()
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	entries, err := rec.List(ctx, models.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecorder_FlushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	rec, err := NewRecorder(store, filepath.Join(t.TempDir(), "spool.db"), testLogger())
	require.NoError(t, err)
	defer rec.Close()

	entry := &models.AuditEntry{
		ID:        "4b8c0e8e-1c55-4e57-9a3e-5b0f0d1f7f10",
		ActorID:   5,
		Action:    models.ActionUnban,
		Target:    "9",
		CreatedAt: time.Now().UTC(),
	}

	// запись уже попала в базу, но осталась в спуле (сбой между вставкой и удалением)
	require.NoError(t, store.AppendAudit(ctx, entry))
	require.NoError(t, rec.spoolEntry(entry))

	n, err := rec.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := rec.List(ctx, models.AuditFilter{Action: models.ActionUnban})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecorder_SpoolDisabled(t *testing.T) {
	store := newFlakyStore()
	store.setDown(true)

	rec, err := NewRecorder(store, "", testLogger())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), 1, models.ActionBan, "2", "")
	})

	n, err := rec.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/client/storage"
)

var _ storage.SessionStorage = (*Storage)(nil)
var _ storage.TrailStorage = (*Storage)(nil)

func TestStorage_SaveGetDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	sess := &storage.Session{
		ServerURL:   "http://localhost:8080",
		AccessToken: "jwt",
		AdminID:     42,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// просроченный токен
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	require.NoError(t, store.SaveSession(ctx, sess))
	ok, err = store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteSession(ctx))
	assert.ErrorIs(t, store.DeleteSession(ctx), storage.ErrSessionNotFound)

	_, err = store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_SessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ledgerctl.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, &storage.Session{ServerURL: "http://a", AccessToken: "t", AdminID: 1}))
	require.NoError(t, store.Close())

	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://a", got.ServerURL)
}

func TestStorage_Trails(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetTrail(ctx, "http://a")
	assert.ErrorIs(t, err, storage.ErrTrailNotFound)

	require.NoError(t, store.SaveTrail(ctx, &storage.ServerTrail{ServerURL: "http://a", LastSeen: 100}))
	require.NoError(t, store.SaveTrail(ctx, &storage.ServerTrail{ServerURL: "http://b", LastSeen: 200}))
	require.NoError(t, store.SaveTrail(ctx, &storage.ServerTrail{ServerURL: "http://a", LastSeen: 150}))

	a, err := store.GetTrail(ctx, "http://a")
	require.NoError(t, err)
	assert.Equal(t, int64(150), a.LastSeen)

	b, err := store.GetTrail(ctx, "http://b")
	require.NoError(t, err)
	assert.Equal(t, int64(200), b.LastSeen)
}

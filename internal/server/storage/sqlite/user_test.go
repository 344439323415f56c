package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
)

func TestUserStorage_UpsertUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUser(ctx, 1)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	require.NoError(t, s.UpsertUser(ctx, &models.User{
		ID:        1,
		Username:  "Alice",
		FirstName: "Alice",
		Lang:      "uk",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}))

	got, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Equal(t, "uk", got.Lang)
	assert.False(t, got.IsBlocked)
	assert.True(t, testTime.Equal(got.CreatedAt))

	require.NoError(t, s.SetUserBlocked(ctx, 1, true))

	// повторный контакт обновляет имя, но не язык и не блокировку
	later := testTime.Add(time.Hour)
	require.NoError(t, s.UpsertUser(ctx, &models.User{
		ID:        1,
		Username:  "alice_new",
		FirstName: "A",
		LastName:  "B",
		Lang:      "ru",
		CreatedAt: later,
		UpdatedAt: later,
	}))

	got, err = s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", got.Username)
	assert.Equal(t, "B", got.LastName)
	assert.Equal(t, "uk", got.Lang)
	assert.True(t, got.IsBlocked)
	assert.True(t, testTime.Equal(got.CreatedAt))
}

func TestUserStorage_SetUserLang(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	// профиль создается, если его еще нет
	require.NoError(t, s.SetUserLang(ctx, 5, "uk"))
	got, err := s.GetUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "uk", got.Lang)

	require.NoError(t, s.SetUserLang(ctx, 5, "ru"))
	got, err = s.GetUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "ru", got.Lang)
}

func TestUserStorage_SetUserBlocked_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.SetUserBlocked(context.Background(), 404, true)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_Admins(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ok, err := s.IsAdmin(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertUser(ctx, &models.User{ID: 2, Username: "bob", CreatedAt: testTime, UpdatedAt: testTime}))
	require.NoError(t, s.AddAdmin(ctx, 1, 0, testTime))
	require.NoError(t, s.AddAdmin(ctx, 2, 1, testTime))
	// повторное добавление - no-op
	require.NoError(t, s.AddAdmin(ctx, 2, 99, testTime))

	ok, err = s.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, int64(1), admins[0].UserID)
	assert.Equal(t, "", admins[0].Username)
	assert.Equal(t, "bob", admins[1].Username)
	assert.Equal(t, int64(1), admins[1].AddedBy)

	require.NoError(t, s.RemoveAdmin(ctx, 2))
	assert.ErrorIs(t, s.RemoveAdmin(ctx, 2), storage.ErrAdminNotFound)

	ok, err = s.IsAdmin(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserStorage_Reservations(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.ConsumeReservedUsername(ctx, "alice")
	require.ErrorIs(t, err, storage.ErrReservationNotFound)

	require.NoError(t, s.ReserveUsername(ctx, "alice", 7, testTime))
	assert.ErrorIs(t, s.ReserveUsername(ctx, "alice", 8, testTime), storage.ErrReservationExists)

	addedBy, err := s.ConsumeReservedUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), addedBy)

	// резервация одноразовая
	_, err = s.ConsumeReservedUsername(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrReservationNotFound)
}

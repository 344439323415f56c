package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/chatgate/internal/models"
	"github.com/iudanet/chatgate/internal/server/storage"
)

const testMale = "0501234567"

func seedChat(t *testing.T, s *Storage, chatID int64, femaleID string) {
	t.Helper()
	require.NoError(t, s.UpsertAllowedChat(context.Background(), &models.AllowedChat{
		ChatID: chatID, FemaleID: femaleID, Title: "chat " + femaleID, AddedAt: testTime,
	}))
}

func seedMessage(t *testing.T, s *Storage, chatID, messageID int64, at time.Time, maleIDs ...string) int64 {
	t.Helper()
	ctx := context.Background()
	rowID, inserted, err := s.SaveMessage(ctx, &models.Message{
		ChatID:    chatID,
		MessageID: messageID,
		SenderID:  100,
		Date:      at,
		Text:      fmt.Sprintf("message %d", messageID),
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, s.LinkMaleIDs(ctx, rowID, maleIDs))
	return rowID
}

func TestMessageStorage_SaveOnce(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	seedChat(t, s, -1, "1111111111")

	msg := &models.Message{ChatID: -1, MessageID: 5, Date: testTime, Text: "hi", MediaType: "photo", FileID: "f", IsForward: true}
	rowID, inserted, err := s.SaveMessage(ctx, msg)
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := s.SaveMessage(ctx, msg)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, rowID, again)

	got, err := s.GetMessageRowID(ctx, -1, 5)
	require.NoError(t, err)
	assert.Equal(t, rowID, got)

	_, err = s.GetMessageRowID(ctx, -1, 6)
	assert.ErrorIs(t, err, storage.ErrMessageNotFound)

	// сообщение из неавторизованного чата нарушает внешний ключ
	_, _, err = s.SaveMessage(ctx, &models.Message{ChatID: -99, MessageID: 1, Date: testTime})
	assert.Error(t, err)
}

func TestMessageStorage_SearchByMale(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	seedChat(t, s, -1, "1111111111")
	seedChat(t, s, -2, "2222222222")

	seedMessage(t, s, -1, 1, testTime, testMale)
	seedMessage(t, s, -1, 2, testTime.Add(2*time.Minute), testMale, "0999999999")
	seedMessage(t, s, -2, 1, testTime.Add(time.Minute), testMale)
	seedMessage(t, s, -2, 2, testTime.Add(3*time.Minute), "0999999999")

	total, err := s.CountByMale(ctx, testMale)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	page, err := s.SearchByMale(ctx, testMale, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(-1), page[0].ChatID)
	assert.Equal(t, int64(2), page[0].MessageID)
	assert.Equal(t, int64(-2), page[1].ChatID)

	page, err = s.SearchByMale(ctx, testMale, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "message 1", page[0].Text)
	assert.True(t, testTime.Equal(page[0].Date))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.IndexStats{MaleIDs: 2, Messages: 4, Chats: 2, FemaleIDs: 2}, stats)

	// удаление чата убирает его сообщения из поиска
	require.NoError(t, s.DeleteAllowedChat(ctx, -1))
	total, err = s.CountByMale(ctx, testMale)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Messages)
}

func TestMessageStorage_Relink(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	seedChat(t, s, -1, "1111111111")
	rowID := seedMessage(t, s, -1, 1, testTime, testMale, testMale)

	total, err := s.CountByMale(ctx, testMale)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, s.UpdateMessageText(ctx, rowID, "edited 0671234567"))
	require.NoError(t, s.UnlinkMaleIDs(ctx, rowID))
	require.NoError(t, s.LinkMaleIDs(ctx, rowID, []string{"0671234567"}))

	total, err = s.CountByMale(ctx, testMale)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	page, err := s.SearchByMale(ctx, "0671234567", 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "edited 0671234567", page[0].Text)

	assert.ErrorIs(t, s.UpdateMessageText(ctx, 999, "x"), storage.ErrMessageNotFound)
}

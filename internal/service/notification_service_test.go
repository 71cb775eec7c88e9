package service

import (
	"context"
	"testing"

	"mundotango/internal/cache"
	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/queue"
	"mundotango/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_UnreadCounter(t *testing.T) {
	mr, rdb := newTestRedis(t)
	f := newFixture(t, rdb)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.notifications.Notify(ctx, NotifyInput{UserID: 1, ActorID: 2, Type: models.NotificationActivity, Title: "hi"})
		require.NoError(t, err)
	}
	count, err := f.notifications.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.True(t, mr.Exists(cache.UnreadKey(1)))

	n, err := f.notifications.Notify(ctx, NotifyInput{UserID: 1, Title: "one more", Data: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Nil(t, n.ActorID)
	assert.False(t, mr.Exists(cache.UnreadKey(1)), "new notification resets the counter")

	require.NoError(t, f.notifications.MarkRead(ctx, 1, n.ID))
	count, err = f.notifications.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assert.Equal(t, 404, models.StatusFor(f.notifications.MarkRead(ctx, 2, n.ID)))

	marked, err := f.notifications.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)
	count, err = f.notifications.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Len(t, f.frames.ofType(notifications.TypeNotification), 4)
}

func TestActivityRecorder_NotifiesAcceptedFriends(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&[]models.Friend{
		{UserID: 1, FriendID: 2, Status: models.FriendStatusAccepted},
		{UserID: 3, FriendID: 1, Status: models.FriendStatusAccepted},
		{UserID: 1, FriendID: 4, Status: models.FriendStatusPending},
	}).Error)

	rec := NewActivityRecorder(repository.NewFriendRepository(f.db), f.notifications)
	require.NoError(t, rec.Handle(ctx, queue.Event{Type: queue.EventPostCreated, ActorID: 1, SubjectID: 9, Summary: "Milonga tonight"}))
	require.NoError(t, rec.Handle(ctx, queue.Event{Type: "unknown", ActorID: 1}))

	var stored []models.Notification
	require.NoError(t, f.db.Order("user_id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, uint(2), stored[0].UserID)
	assert.Equal(t, uint(3), stored[1].UserID)
	assert.Equal(t, models.NotificationActivity, stored[0].Type)
	assert.Equal(t, "Milonga tonight", stored[0].Body)
	assert.JSONEq(t, `{"event":"post.created","subject_id":9}`, string(stored[0].Data))
}

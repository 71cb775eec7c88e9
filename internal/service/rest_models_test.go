package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/queue"
	"mundotango/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendFlow(t *testing.T) {
	f := newFixture(t, nil)
	ana, bruno, carla := f.user(t, "ana"), f.user(t, "bruno"), f.user(t, "carla")
	repo := repository.NewRestRepository(f.db, f.models.Friend)
	ctx := context.Background()

	_, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"friend_id": float64(ana.ID)})
	assert.Equal(t, 400, models.StatusFor(err), "no self requests")

	req, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{
		"friend_id": float64(bruno.ID), "status": "accepted", "note": "from the milonga",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusPending, req.Status, "requests always start pending")

	_, err = repo.Create(ctx, repository.Actor{ID: bruno.ID}, repository.Attrs{"friend_id": float64(ana.ID)})
	assert.Equal(t, 400, models.StatusFor(err), "reverse duplicate")

	pushed := f.frames.ofType(notifications.TypeNotification)
	require.Len(t, pushed, 1)
	assert.Equal(t, bruno.ID, pushed[0].UserID)
	assert.Equal(t, models.NotificationFriendRequest, pushed[0].Data["type"])

	_, err = repo.Update(ctx, repository.Actor{ID: ana.ID}, req.ID, repository.Attrs{"status": "accepted"})
	assert.Equal(t, 403, models.StatusFor(err), "requester cannot accept")
	_, err = repo.Update(ctx, repository.Actor{ID: carla.ID}, req.ID, repository.Attrs{"status": "accepted"})
	assert.Equal(t, 403, models.StatusFor(err))

	accepted, err := repo.Update(ctx, repository.Actor{ID: bruno.ID}, req.ID, repository.Attrs{"status": "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusAccepted, accepted.Status)

	pushed = f.frames.ofType(notifications.TypeNotification)
	require.Len(t, pushed, 2)
	assert.Equal(t, ana.ID, pushed[1].UserID)
	assert.Equal(t, models.NotificationFriendAccepted, pushed[1].Data["type"])
	assert.Equal(t, []string{queue.EventFriendAccepted}, f.events.types())

	_, err = repo.Update(ctx, repository.Actor{ID: bruno.ID}, req.ID, repository.Attrs{"status": "rejected"})
	assert.Equal(t, 400, models.StatusFor(err), "answered requests are final")
}

func TestChatFlow(t *testing.T) {
	f := newFixture(t, nil)
	ana, bruno, carla := f.user(t, "ana"), f.user(t, "bruno"), f.user(t, "carla")
	rooms := repository.NewRestRepository(f.db, f.models.ChatRoom)
	messages := repository.NewRestRepository(f.db, f.models.ChatMessage)
	ctx := context.Background()

	_, err := rooms.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"title": "Solo"})
	assert.Equal(t, 400, models.StatusFor(err), "single rooms need a partner")

	room, err := rooms.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{
		"title": "Practica", "member_ids": []any{float64(bruno.ID), float64(ana.ID)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, room.Slug)
	assert.Len(t, room.Members, 2)

	room, err = rooms.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, room.Members, 2)

	_, err = messages.Create(ctx, repository.Actor{ID: carla.ID}, repository.Attrs{
		"chat_room_id": float64(room.ID), "message": "hola",
	})
	assert.Equal(t, 403, models.StatusFor(err))

	_, err = messages.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"chat_room_id": float64(room.ID)})
	assert.Equal(t, 400, models.StatusFor(err))

	msg, err := messages.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{
		"chat_room_id": float64(room.ID), "message": "¿bailamos?",
	})
	require.NoError(t, err)
	assert.Equal(t, "text", msg.MessageType)

	frames := f.frames.ofType(notifications.TypeNewMessage)
	require.Len(t, frames, 2)
	assert.ElementsMatch(t, []uint{ana.ID, bruno.ID}, []uint{frames[0].UserID, frames[1].UserID})
	assert.Equal(t, "¿bailamos?", frames[0].Data["message"])

	var stored models.ChatRoom
	require.NoError(t, f.db.First(&stored, room.ID).Error)
	require.NotNil(t, stored.LastMessageAt)

	_, _, err = messages.List(ctx, repository.ListQuery{Actor: repository.Actor{ID: ana.ID}})
	assert.Equal(t, 400, models.StatusFor(err))
	_, _, err = messages.List(ctx, repository.ListQuery{
		Actor: repository.Actor{ID: carla.ID}, Filters: map[string]string{"chat_room_id": "1"},
	})
	assert.Equal(t, 403, models.StatusFor(err))
	list, total, err := messages.List(ctx, repository.ListQuery{
		Actor: repository.Actor{ID: bruno.ID}, Filters: map[string]string{"chat_room_id": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, msg.ID, list[0].ID)
}

func TestChatService_Typing(t *testing.T) {
	f := newFixture(t, nil)
	chats := repository.NewChatRepository(f.db)
	svc := NewChatService(chats, f.frames, "")
	ctx := context.Background()
	require.NoError(t, chats.AddMember(ctx, 1, 10))
	require.NoError(t, chats.AddMember(ctx, 1, 11))

	require.NoError(t, svc.Typing(ctx, 10, TypingEvent{ChatRoomID: 1, IsTyping: true}))
	frames := f.frames.ofType(notifications.TypeTyping)
	require.Len(t, frames, 1)
	assert.Equal(t, uint(11), frames[0].UserID)
	assert.Equal(t, float64(10), frames[0].Data["user_id"])

	assert.Equal(t, 403, models.StatusFor(svc.Typing(ctx, 12, TypingEvent{ChatRoomID: 1})))
	assert.Equal(t, 400, models.StatusFor(svc.Typing(ctx, 10, TypingEvent{})))
}

func TestPostCreateBroadcastsAndPublishes(t *testing.T) {
	f := newFixture(t, nil)
	ana := f.user(t, "ana")
	repo := repository.NewRestRepository(f.db, f.models.Post)
	ctx := context.Background()

	_, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"content": " "})
	assert.Equal(t, 400, models.StatusFor(err))
	_, err = repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"content": "x", "visibility": "secret"})
	assert.Equal(t, 400, models.StatusFor(err))

	post, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{
		"content": "Milonga tonight", "hashtags": []any{"milonga", " baires "},
	})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, post.Visibility)
	assert.Equal(t, "milonga,baires", post.Hashtags)
	require.NotNil(t, post.User)

	broadcasts := f.frames.ofType(notifications.TypeNewPost)
	require.Len(t, broadcasts, 1)
	assert.True(t, broadcasts[0].Broadcast)

	_, err = repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"content": "just friends", "visibility": "friends"})
	require.NoError(t, err)
	assert.Len(t, f.frames.ofType(notifications.TypeNewPost), 1, "only public posts are broadcast")
	assert.Equal(t, []string{queue.EventPostCreated, queue.EventPostCreated}, f.events.types())

	_, err = repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"content": "diary", "visibility": "private"})
	require.NoError(t, err)
	assert.Len(t, f.frames.ofType(notifications.TypeNewPost), 1)
	assert.Len(t, f.events.types(), 2, "private posts are not published")
}

func TestPostVisibility(t *testing.T) {
	f := newFixture(t, nil)
	ana, bruno, carla := f.user(t, "ana"), f.user(t, "bruno"), f.user(t, "carla")
	require.NoError(t, f.db.Create(&models.Friend{UserID: ana.ID, FriendID: bruno.ID, Status: models.FriendStatusAccepted}).Error)
	repo := repository.NewRestRepository(f.db, f.models.Post)
	ctx := context.Background()

	posts := map[string]*models.Post{}
	for _, vis := range []string{models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate} {
		p, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{"content": vis, "visibility": vis})
		require.NoError(t, err)
		posts[vis] = p
	}

	tests := []struct {
		name    string
		actor   repository.Actor
		visible []string
	}{
		{"owner", repository.Actor{ID: ana.ID}, []string{"public", "friends", "private"}},
		{"friend", repository.Actor{ID: bruno.ID}, []string{"public", "friends"}},
		{"stranger", repository.Actor{ID: carla.ID}, []string{"public"}},
		{"admin", repository.Actor{ID: 99, IsAdmin: true}, []string{"public", "friends", "private"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.List(ctx, repository.ListQuery{Actor: tt.actor})
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.visible), total)
			var got []string
			for _, p := range records {
				got = append(got, p.Content)
			}
			assert.ElementsMatch(t, tt.visible, got)

			for vis, p := range posts {
				_, err := repo.Show(ctx, tt.actor, p.ID)
				if slices.Contains(tt.visible, vis) {
					assert.NoError(t, err, vis)
				} else {
					assert.Equal(t, 404, models.StatusFor(err), vis)
				}
			}
		})
	}

	records, total, err := repo.List(ctx, repository.ListQuery{
		Actor:   repository.Actor{ID: carla.ID},
		Filters: map[string]string{"visibility": models.VisibilityPrivate},
	})
	require.NoError(t, err)
	assert.Zero(t, total, "filters cannot widen the visible rows")
	assert.Empty(t, records)
}

func TestEventVisibility(t *testing.T) {
	f := newFixture(t, nil)
	ana, bruno := f.user(t, "ana"), f.user(t, "bruno")
	repo := repository.NewRestRepository(f.db, f.models.Event)
	ctx := context.Background()

	ev, err := repo.Create(ctx, repository.Actor{ID: ana.ID}, repository.Attrs{
		"title": "Private practica", "start_date": "2026-11-01T20:00:00Z", "visibility": "private",
	})
	require.NoError(t, err)
	assert.Empty(t, f.events.types(), "private events are not published")

	_, err = repo.Show(ctx, repository.Actor{ID: bruno.ID}, ev.ID)
	assert.Equal(t, 404, models.StatusFor(err))
	_, total, err := repo.List(ctx, repository.ListQuery{Actor: repository.Actor{ID: bruno.ID}})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = repo.Show(ctx, repository.Actor{ID: ana.ID}, ev.ID)
	assert.NoError(t, err)
}

func TestEventValidation(t *testing.T) {
	f := newFixture(t, nil)
	repo := repository.NewRestRepository(f.db, f.models.Event)
	ctx := context.Background()
	actor := repository.Actor{ID: 1}

	_, err := repo.Create(ctx, actor, repository.Attrs{"title": "Festival"})
	assert.Equal(t, 400, models.StatusFor(err), "start_date required")
	_, err = repo.Create(ctx, actor, repository.Attrs{"title": "Festival", "start_date": "tomorrow"})
	assert.Equal(t, 400, models.StatusFor(err))
	_, err = repo.Create(ctx, actor, repository.Attrs{
		"title": "Festival", "start_date": "2026-11-20T20:00:00Z", "end_date": "2026-11-19T20:00:00Z",
	})
	assert.Equal(t, 400, models.StatusFor(err))
	_, err = repo.Create(ctx, actor, repository.Attrs{
		"title": "Festival", "start_date": "2026-11-20T20:00:00Z", "latitude": -34.6,
	})
	assert.Equal(t, 400, models.StatusFor(err))

	ev, err := repo.Create(ctx, actor, repository.Attrs{
		"title": "Festival", "start_date": "2026-11-20T20:00:00Z", "end_date": "2026-11-23T04:00:00Z",
		"latitude": -34.6, "longitude": -58.4, "city": "Buenos Aires",
	})
	require.NoError(t, err)
	require.NotNil(t, ev.StartDate)
	assert.True(t, ev.StartDate.Equal(time.Date(2026, 11, 20, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{queue.EventEventCreated}, f.events.types())

	_, err = repo.Update(ctx, actor, ev.ID, repository.Attrs{"end_date": "2026-11-01T00:00:00Z"})
	assert.Equal(t, 400, models.StatusFor(err), "end checked against stored start")
	updated, err := repo.Update(ctx, actor, ev.ID, repository.Attrs{"venue": "Salon Canning"})
	require.NoError(t, err)
	assert.Equal(t, "Salon Canning", updated.Venue)
}

func TestGroupSlugAndMembership(t *testing.T) {
	f := newFixture(t, nil)
	groups := repository.NewRestRepository(f.db, f.models.Group)
	members := repository.NewRestRepository(f.db, f.models.GroupMember)
	ctx := context.Background()

	g, err := groups.Create(ctx, repository.Actor{ID: 1}, repository.Attrs{"name": "Tango Berlin!"})
	require.NoError(t, err)
	assert.Equal(t, "tango-berlin", g.Slug)

	_, err = groups.Create(ctx, repository.Actor{ID: 2}, repository.Attrs{"name": "Tango Berlin"})
	assert.Equal(t, 400, models.StatusFor(err), "slug collision")

	_, err = groups.Create(ctx, repository.Actor{ID: 2}, repository.Attrs{"name": "API", "slug": "api"})
	assert.Equal(t, 400, models.StatusFor(err), "reserved slug")

	m, err := members.Create(ctx, repository.Actor{ID: 2}, repository.Attrs{"group_id": float64(g.ID), "role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "member", m.Role, "members cannot promote themselves")
	assert.Equal(t, []string{queue.EventGroupJoined}, f.events.types())

	promoted, err := members.Update(ctx, repository.Actor{ID: 99, IsAdmin: true}, m.ID, repository.Attrs{"role": "moderator"})
	require.NoError(t, err)
	assert.Equal(t, "moderator", promoted.Role)
}

func TestNotificationResource(t *testing.T) {
	f := newFixture(t, nil)
	repo := repository.NewRestRepository(f.db, f.models.Notification)
	ctx := context.Background()

	n, err := repo.Create(ctx, repository.Actor{ID: 4}, repository.Attrs{
		"title": "Reminder", "data": map[string]any{"event_id": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "general", n.Type)
	assert.JSONEq(t, `{"event_id":3}`, string(n.Data))
	assert.Len(t, f.frames.ofType(notifications.TypeNotification), 1)

	read, err := repo.Update(ctx, repository.Actor{ID: 4}, n.ID, repository.Attrs{"is_read": true})
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	count, err := f.notifications.UnreadCount(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, total, err := repo.List(ctx, repository.ListQuery{Actor: repository.Actor{ID: 5}})
	require.NoError(t, err)
	assert.Zero(t, total, "notifications are private")
}

func TestExperienceLists(t *testing.T) {
	f := newFixture(t, nil)
	repo := repository.NewRestRepository(f.db, f.models.DanceExperience)
	ctx := context.Background()

	_, err := repo.Create(ctx, repository.Actor{ID: 1}, repository.Attrs{"leader_level": 11})
	assert.Equal(t, 400, models.StatusFor(err))

	exp, err := repo.Create(ctx, repository.Actor{ID: 1}, repository.Attrs{
		"started_year": 2015, "social_dancing_cities": []any{"Buenos Aires", "Berlin"},
	})
	require.NoError(t, err)
	require.NotNil(t, exp.SocialDancingCities)
	assert.Equal(t, "Buenos Aires,Berlin", *exp.SocialDancingCities)

	_, err = repo.Create(ctx, repository.Actor{ID: 1}, repository.Attrs{"started_year": 2016})
	assert.Equal(t, 400, models.StatusFor(err), "one dance experience per user")
}

func TestUserModelNeverSelectsPassword(t *testing.T) {
	f := newFixture(t, nil)
	ana := f.user(t, "ana")
	repo := repository.NewRestRepository(f.db, f.models.User)
	ctx := context.Background()

	got, err := repo.Show(ctx, repository.Actor{ID: ana.ID}, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Empty(t, got.Password)

	updated, err := repo.Update(ctx, repository.Actor{ID: ana.ID}, ana.ID, repository.Attrs{"city": "Buenos Aires"})
	require.NoError(t, err)
	assert.Equal(t, "Buenos Aires", updated.City)
	assert.Empty(t, updated.Password)

	list, _, err := repo.List(ctx, repository.ListQuery{Actor: repository.Actor{ID: ana.ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Password)
}

package resource

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"mundotango/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var env = Env{MediaBaseURL: "https://cdn.mundotango.life"}

func keysOf(o Object) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}

func strPtr(s string) *string { return &s }

func TestFaqs_Example(t *testing.T) {
	out, err := Faqs.InitResponse(env, models.Faq{ID: 1, Question: "Q", Answer: "A"})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"question":"Q","answer":"A","createdAt":null,"updatedAt":null,"deletedAt":null}`, string(raw))
}

func TestFaqs_EmptySliceIsObject(t *testing.T) {
	out, err := Faqs.InitResponse(env, []models.Faq{})
	require.NoError(t, err)
	assert.Equal(t, Object{}, out)
}

func TestEmptyShapesArePinned(t *testing.T) {
	tests := []struct {
		name  string
		got   EmptyShape
		shape EmptyShape
	}{
		{"user", Users.Empty, EmptyObject},
		{"mention", Mentions.Empty, EmptyArray},
		{"post", Posts.Empty, EmptyArray},
		{"comment", Comments.Empty, EmptyArray},
		{"friend", Friends.Empty, EmptyArray},
		{"event", Events.Empty, EmptyArray},
		{"event participant", EventParticipants.Empty, EmptyObject},
		{"group", Groups.Empty, EmptyPassthrough},
		{"group member", GroupMembers.Empty, EmptyObject},
		{"chat room", ChatRooms.Empty, EmptyArray},
		{"chat message", ChatMessages.Empty, EmptyArray},
		{"notification", Notifications.Empty, EmptyArray},
		{"subscription", Subscriptions.Empty, EmptyObject},
		{"activity", Activities.Empty, EmptyObject},
		{"faq", Faqs.Empty, EmptyObject},
		{"dance experience", DanceExperiences.Empty, EmptyObject},
		{"organizer experience", OrganizerExperiences.Empty, EmptyObject},
		{"teacher experience", TeacherExperiences.Empty, EmptyPassthrough},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.shape, tt.got, tt.name)
	}
}

func TestInitResponse_EmptyInputs(t *testing.T) {
	t.Run("array shape", func(t *testing.T) {
		for _, in := range []any{nil, (*models.Event)(nil), []models.Event{}, []*models.Event{}} {
			out, err := Events.InitResponse(env, in)
			require.NoError(t, err)
			assert.Equal(t, []Object{}, out)
		}
	})

	t.Run("passthrough shape", func(t *testing.T) {
		out, err := Groups.InitResponse(env, nil)
		require.NoError(t, err)
		assert.Nil(t, out)

		in := []models.Group{}
		out, err = Groups.InitResponse(env, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		raw, _ := json.Marshal(out)
		assert.Equal(t, "[]", string(raw))
	})

	t.Run("object shape", func(t *testing.T) {
		out, err := Activities.InitResponse(env, (*models.Activity)(nil))
		require.NoError(t, err)
		assert.Equal(t, Object{}, out)
	})
}

func TestInitResponse_PreservesOrder(t *testing.T) {
	in := []*models.Activity{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	out, err := Activities.InitResponse(env, in)
	require.NoError(t, err)

	objs, ok := out.([]Object)
	require.True(t, ok)
	require.Len(t, objs, 3)
	for i, rec := range in {
		assert.Equal(t, rec.ID, objs[i]["id"])
	}
}

func TestInitResponse_SkipsNilRecords(t *testing.T) {
	out, err := Activities.InitResponse(env, []*models.Activity{nil, {ID: 1, Name: "a"}, nil, {ID: 2, Name: "b"}})
	require.NoError(t, err)
	objs, ok := out.([]Object)
	require.True(t, ok)
	require.Len(t, objs, 2)
	assert.Equal(t, uint(1), objs[0]["id"])
	assert.Equal(t, uint(2), objs[1]["id"])

	out, err = Events.InitResponse(env, []*models.Event{nil, nil})
	require.NoError(t, err)
	assert.Equal(t, []Object{}, out, "all-nil input is empty")
}

func TestInitResponse_UnsupportedInput(t *testing.T) {
	_, err := Faqs.InitResponse(env, "nope")
	assert.Error(t, err)
}

func TestKeySetsMatchAllowList(t *testing.T) {
	now := time.Now()
	check := func(t *testing.T, keys []string, obj any, err error) {
		t.Helper()
		require.NoError(t, err)
		o, ok := obj.(Object)
		require.True(t, ok)
		assert.Equal(t, sorted(keys), keysOf(o))
	}

	t.Run("user", func(t *testing.T) {
		o, err := Users.InitResponse(env, &models.User{ID: 1})
		check(t, Users.Keys, o, err)
	})
	t.Run("post", func(t *testing.T) {
		o, err := Posts.InitResponse(env, &models.Post{ID: 1, User: &models.User{ID: 2}})
		check(t, Posts.Keys, o, err)
	})
	t.Run("comment", func(t *testing.T) {
		o, err := Comments.InitResponse(env, models.Comment{ID: 1})
		check(t, Comments.Keys, o, err)
	})
	t.Run("friend", func(t *testing.T) {
		o, err := Friends.InitResponse(env, models.Friend{ID: 1})
		check(t, Friends.Keys, o, err)
	})
	t.Run("event", func(t *testing.T) {
		o, err := Events.InitResponse(env, models.Event{ID: 1, StartDate: &now})
		check(t, Events.Keys, o, err)
	})
	t.Run("event participant", func(t *testing.T) {
		o, err := EventParticipants.InitResponse(env, models.EventParticipant{ID: 1})
		check(t, EventParticipants.Keys, o, err)
	})
	t.Run("group", func(t *testing.T) {
		o, err := Groups.InitResponse(env, models.Group{ID: 1})
		check(t, Groups.Keys, o, err)
	})
	t.Run("group member", func(t *testing.T) {
		o, err := GroupMembers.InitResponse(env, models.GroupMember{ID: 1})
		check(t, GroupMembers.Keys, o, err)
	})
	t.Run("chat room", func(t *testing.T) {
		o, err := ChatRooms.InitResponse(env, models.ChatRoom{ID: 1, Members: []models.ChatRoomUser{{UserID: 4}}})
		check(t, ChatRooms.Keys, o, err)
		assert.Equal(t, []uint{4}, o.(Object)["member_ids"])
	})
	t.Run("chat message", func(t *testing.T) {
		o, err := ChatMessages.InitResponse(env, models.ChatMessage{ID: 1})
		check(t, ChatMessages.Keys, o, err)
	})
	t.Run("notification", func(t *testing.T) {
		o, err := Notifications.InitResponse(env, models.Notification{ID: 1, Data: datatypes.JSON(`{"room":2}`)})
		check(t, Notifications.Keys, o, err)
		raw, _ := json.Marshal(o)
		assert.Contains(t, string(raw), `"data":{"room":2}`)
	})
	t.Run("subscription", func(t *testing.T) {
		o, err := Subscriptions.InitResponse(env, models.Subscription{ID: 1})
		check(t, Subscriptions.Keys, o, err)
	})
	t.Run("activity", func(t *testing.T) {
		o, err := Activities.InitResponse(env, models.Activity{ID: 1})
		check(t, Activities.Keys, o, err)
	})
	t.Run("dance experience", func(t *testing.T) {
		o, err := DanceExperiences.InitResponse(env, models.DanceExperience{ID: 1, SocialDancingCities: strPtr("")})
		check(t, DanceExperiences.Keys, o, err)
	})
	t.Run("organizer experience", func(t *testing.T) {
		o, err := OrganizerExperiences.InitResponse(env, models.OrganizerExperience{ID: 1, HostedEventTypes: strPtr("milonga")})
		check(t, OrganizerExperiences.Keys, o, err)
	})
	t.Run("teacher experience", func(t *testing.T) {
		o, err := TeacherExperiences.InitResponse(env, models.TeacherExperience{ID: 1})
		check(t, TeacherExperiences.Keys, o, err)
	})
	t.Run("mention", func(t *testing.T) {
		o, err := Mentions.InitResponse(env, models.User{ID: 1})
		check(t, Mentions.Keys, o, err)
	})
}

func TestFallbacks(t *testing.T) {
	out, err := Users.InitResponse(Env{MediaBaseURL: "https://cdn.example"}, &models.User{
		ID:            1,
		ImageURL:      "",
		BackgroundURL: "uploads/bg.webp",
		TangoRoles:    "leader, follower,,",
	})
	require.NoError(t, err)
	o := out.(Object)

	assert.Nil(t, o["image_url"])
	assert.Equal(t, "https://cdn.example/uploads/bg.webp", o["background_url"])
	assert.Nil(t, o["bio"])
	assert.Nil(t, o["api_token"])
	assert.Equal(t, []string{"leader", "follower"}, o["tango_roles"])
	assert.Nil(t, o["createdAt"])
	assert.Nil(t, o["deletedAt"])
}

func TestUsers_EchoesAPIToken(t *testing.T) {
	out, err := Users.InitResponse(Env{APIToken: "tok"}, models.User{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "tok", out.(Object)["api_token"])
}

func TestTimestamps(t *testing.T) {
	created := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	deleted := gorm.DeletedAt{Time: created.Add(time.Hour), Valid: true}
	out, err := Faqs.InitResponse(env, models.Faq{ID: 1, CreatedAt: created, UpdatedAt: created, DeletedAt: deleted})
	require.NoError(t, err)
	o := out.(Object)
	assert.Equal(t, created, o["createdAt"])
	assert.Equal(t, deleted.Time, o["deletedAt"])
}

func TestNullListColumns(t *testing.T) {
	_, err := DanceExperiences.InitResponse(env, models.DanceExperience{ID: 1})
	assert.True(t, errors.Is(err, ErrNullListColumn))

	_, err = OrganizerExperiences.InitResponse(env, []models.OrganizerExperience{
		{ID: 1, HostedEventTypes: strPtr("milonga,festival")},
		{ID: 2},
	})
	assert.True(t, errors.Is(err, ErrNullListColumn))

	out, err := TeacherExperiences.InitResponse(env, models.TeacherExperience{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{}, out.(Object)["cities"], "other comma columns treat empty as []")
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		base, in string
		want     any
	}{
		{"https://cdn.x", "", nil},
		{"https://cdn.x", "  ", nil},
		{"https://cdn.x", "https://images.y/a.png", "https://images.y/a.png"},
		{"https://cdn.x", "HTTP://images.y/a.png", "HTTP://images.y/a.png"},
		{"https://cdn.x/", "/uploads/a.webp", "https://cdn.x/uploads/a.webp"},
		{"", "uploads/a.webp", "uploads/a.webp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeImageURL(tt.base, tt.in), tt.in)
	}
}

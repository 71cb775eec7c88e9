package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/queue"
	"mundotango/internal/repository"
	"mundotango/internal/resource"
	"mundotango/internal/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Deps are the collaborators the model hooks close over.
type Deps struct {
	Users         repository.UserRepository
	Friends       repository.FriendRepository
	Chat          *ChatService
	Mentions      *MentionCache
	Notifications *NotificationService
	Push          FramePublisher
	Events        queue.Publisher
	MediaBaseURL  string
}

// RestModels declares every resource exposed under /api/<name>.
type RestModels struct {
	Activity            *repository.RestModel[models.Activity]
	Faq                 *repository.RestModel[models.Faq]
	User                *repository.RestModel[models.User]
	Post                *repository.RestModel[models.Post]
	Comment             *repository.RestModel[models.Comment]
	Event               *repository.RestModel[models.Event]
	EventParticipant    *repository.RestModel[models.EventParticipant]
	Group               *repository.RestModel[models.Group]
	GroupMember         *repository.RestModel[models.GroupMember]
	Friend              *repository.RestModel[models.Friend]
	ChatRoom            *repository.RestModel[models.ChatRoom]
	ChatMessage         *repository.RestModel[models.ChatMessage]
	Notification        *repository.RestModel[models.Notification]
	Subscription        *repository.RestModel[models.Subscription]
	DanceExperience     *repository.RestModel[models.DanceExperience]
	OrganizerExperience *repository.RestModel[models.OrganizerExperience]
	TeacherExperience   *repository.RestModel[models.TeacherExperience]
}

type hooks struct {
	Deps
	env resource.Env
}

func NewRestModels(d Deps) *RestModels {
	if d.Events == nil {
		d.Events = queue.NopPublisher{}
	}
	h := &hooks{Deps: d, env: resource.Env{MediaBaseURL: d.MediaBaseURL}}

	return &RestModels{
		Activity: &repository.RestModel[models.Activity]{
			Name:             "Activity",
			Fields:           []string{"name", "description", "icon_url", "parent_id"},
			Filters:          []string{"parent_id", "user_id"},
			Order:            "id asc",
			OwnerColumn:      "user_id",
			BeforeCreateHook: requireAttrs("name"),
		},
		Faq: &repository.RestModel[models.Faq]{
			Name:             "Faq",
			Fields:           []string{"question", "answer", "sort_order"},
			Order:            "sort_order asc, id asc",
			AdminOnly:        true,
			BeforeCreateHook: requireAttrs("question"),
		},
		User: &repository.RestModel[models.User]{
			Name: "User",
			Fields: []string{
				"name", "username", "email", "password", "image_url", "background_url",
				"bio", "city", "country", "tango_roles",
			},
			Shown: []string{
				"id", "name", "username", "email", "image_url", "background_url",
				"bio", "city", "country", "tango_roles", "is_admin", "is_active",
				"created_at", "updated_at", "deleted_at",
			},
			Filters:          []string{"city", "country"},
			OwnerColumn:      "id",
			BeforeCreateHook: h.beforeUserCreate,
			BeforeEditHook:   h.beforeUserEdit,
			AfterEditHook:    h.afterUserEdit,
		},
		Post: &repository.RestModel[models.Post]{
			Name: "Post",
			Fields: []string{
				"group_id", "event_id", "content", "image_url", "video_url",
				"visibility", "location", "hashtags",
			},
			Filters:          []string{"user_id", "group_id", "event_id", "visibility"},
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeListHook:   h.visibleRows,
			BeforeShowHook:   h.showPost,
			BeforeCreateHook: h.beforePostCreate,
			BeforeEditHook:   h.beforePostEdit,
			AfterCreateHook:  h.afterPostCreate,
		},
		Comment: &repository.RestModel[models.Comment]{
			Name:             "Comment",
			Fields:           []string{"post_id", "content"},
			Filters:          []string{"post_id", "user_id"},
			Order:            "id asc",
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: requireAttrs("post_id", "content"),
			BeforeEditHook:   freeze[models.Comment]("post_id"),
		},
		Event: &repository.RestModel[models.Event]{
			Name: "Event",
			Fields: []string{
				"group_id", "title", "description", "event_type", "start_date", "end_date",
				"venue", "city", "country", "latitude", "longitude", "image_url",
				"max_attendees", "visibility",
			},
			Filters:          []string{"user_id", "group_id", "city", "country", "event_type"},
			Order:            "start_date desc",
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeListHook:   h.visibleRows,
			BeforeShowHook:   h.showEvent,
			BeforeCreateHook: h.beforeEventCreate,
			BeforeEditHook:   h.beforeEventEdit,
			AfterCreateHook:  h.afterEventCreate,
		},
		EventParticipant: &repository.RestModel[models.EventParticipant]{
			Name:             "Event participant",
			Fields:           []string{"event_id", "status"},
			Filters:          []string{"event_id", "user_id", "status"},
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: h.beforeParticipantCreate,
			BeforeEditHook:   h.beforeParticipantEdit,
		},
		Group: &repository.RestModel[models.Group]{
			Name: "Group",
			Fields: []string{
				"name", "slug", "description", "image_url", "group_type",
				"city", "country", "privacy",
			},
			Filters:          []string{"city", "country", "group_type", "slug"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: h.beforeGroupCreate,
			BeforeEditHook:   h.beforeGroupEdit,
		},
		GroupMember: &repository.RestModel[models.GroupMember]{
			Name:             "Group member",
			Fields:           []string{"group_id", "role", "status"},
			Filters:          []string{"group_id", "user_id", "status"},
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: h.beforeMemberCreate,
			BeforeEditHook:   h.beforeMemberEdit,
			AfterCreateHook:  h.afterMemberCreate,
		},
		Friend: &repository.RestModel[models.Friend]{
			Name:             "Friend",
			Fields:           []string{"friend_id", "status", "note"},
			Filters:          []string{"user_id", "friend_id", "status"},
			Preload:          []string{"Friend"},
			OwnerColumn:      "user_id",
			EditableBy:       []string{"friend_id"},
			Private:          true,
			BeforeCreateHook: h.beforeFriendCreate,
			BeforeEditHook:   h.beforeFriendEdit,
			AfterCreateHook:  h.afterFriendCreate,
			AfterEditHook:    h.afterFriendEdit,
		},
		ChatRoom: &repository.RestModel[models.ChatRoom]{
			Name:             "Chat room",
			Fields:           []string{"title", "room_type", "image_url", "member_ids"},
			Filters:          []string{"user_id", "room_type", "slug"},
			Order:            "last_message_at desc, id desc",
			Preload:          []string{"Members"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: h.beforeRoomCreate,
			BeforeEditHook:   freeze[models.ChatRoom]("member_ids", "room_type"),
			AfterCreateHook:  d.Chat.afterRoom,
		},
		ChatMessage: &repository.RestModel[models.ChatMessage]{
			Name:             "Chat message",
			Fields:           []string{"chat_room_id", "message", "message_type", "file_url", "reply_to_id"},
			Filters:          []string{"chat_room_id", "user_id"},
			Preload:          []string{"User"},
			OwnerColumn:      "user_id",
			BeforeListHook:   d.Chat.beforeMessageList,
			BeforeCreateHook: d.Chat.beforeMessage,
			BeforeEditHook:   freeze[models.ChatMessage]("chat_room_id"),
			AfterCreateHook:  d.Chat.afterMessage,
		},
		Notification: &repository.RestModel[models.Notification]{
			Name:             "Notification",
			Fields:           []string{"type", "title", "body", "data", "is_read"},
			Filters:          []string{"type", "is_read"},
			Preload:          []string{"Actor"},
			OwnerColumn:      "user_id",
			Private:          true,
			BeforeCreateHook: h.beforeNotificationCreate,
			BeforeEditHook:   h.beforeNotificationEdit,
			AfterCreateHook:  h.afterNotificationCreate,
			AfterEditHook:    h.afterNotificationEdit,
			AfterDeleteHook:  h.afterNotificationDelete,
		},
		Subscription: &repository.RestModel[models.Subscription]{
			Name:             "Subscription",
			Fields:           []string{"plan", "status", "provider_customer_id", "current_period_end"},
			Filters:          []string{"status", "plan"},
			OwnerColumn:      "user_id",
			Private:          true,
			BeforeCreateHook: h.beforeSubscriptionCreate,
			BeforeEditHook:   h.beforeSubscriptionEdit,
		},
		DanceExperience: &repository.RestModel[models.DanceExperience]{
			Name: "Dance experience",
			Fields: []string{
				"started_year", "social_dancing_cities", "favourite_dancing_cities",
				"leader_level", "follower_level",
			},
			Filters:          []string{"user_id"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: h.beforeDanceExperience,
			BeforeEditHook: func(ctx context.Context, actor repository.Actor, _ *models.DanceExperience, attrs repository.Attrs) error {
				return h.beforeDanceExperience(ctx, actor, attrs)
			},
		},
		OrganizerExperience: &repository.RestModel[models.OrganizerExperience]{
			Name:             "Organizer experience",
			Fields:           []string{"hosted_events", "hosted_event_types", "cities"},
			Filters:          []string{"user_id"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: joinLists("hosted_event_types", "cities"),
			BeforeEditHook:   editing[models.OrganizerExperience](joinLists("hosted_event_types", "cities")),
		},
		TeacherExperience: &repository.RestModel[models.TeacherExperience]{
			Name:             "Teacher experience",
			Fields:           []string{"partner_name", "cities", "online_platforms", "teaching_reason"},
			Filters:          []string{"user_id"},
			OwnerColumn:      "user_id",
			BeforeCreateHook: joinLists("cities", "online_platforms"),
			BeforeEditHook:   editing[models.TeacherExperience](joinLists("cities", "online_platforms")),
		},
	}
}

// requireAttrs rejects creates missing any of keys.
func requireAttrs(keys ...string) func(context.Context, repository.Actor, repository.Attrs) error {
	return func(_ context.Context, _ repository.Actor, attrs repository.Attrs) error {
		for _, k := range keys {
			v, ok := attrs[k]
			if s, isString := v.(string); !ok || v == nil || (isString && strings.TrimSpace(s) == "") {
				return models.NewValidationError(k + " is required")
			}
		}
		return nil
	}
}

// freeze drops keys that may only be set on create.
func freeze[T any](keys ...string) func(context.Context, repository.Actor, *T, repository.Attrs) error {
	return func(_ context.Context, _ repository.Actor, _ *T, attrs repository.Attrs) error {
		for _, k := range keys {
			delete(attrs, k)
		}
		return nil
	}
}

func editing[T any](hook func(context.Context, repository.Actor, repository.Attrs) error) func(context.Context, repository.Actor, *T, repository.Attrs) error {
	return func(ctx context.Context, actor repository.Actor, _ *T, attrs repository.Attrs) error {
		return hook(ctx, actor, attrs)
	}
}

// joinLists stores list attrs sent as JSON arrays in their comma-joined
// columns.
func joinLists(keys ...string) func(context.Context, repository.Actor, repository.Attrs) error {
	return func(_ context.Context, _ repository.Actor, attrs repository.Attrs) error {
		for _, k := range keys {
			items, ok := attrs[k].([]any)
			if !ok {
				continue
			}
			parts := make([]string, 0, len(items))
			for _, item := range items {
				s, isString := item.(string)
				if !isString {
					return models.NewValidationError(k + " must be a list of strings")
				}
				if s = strings.TrimSpace(s); s != "" {
					parts = append(parts, strings.ReplaceAll(s, ",", " "))
				}
			}
			attrs[k] = strings.Join(parts, ",")
		}
		return nil
	}
}

func oneOf(attrs repository.Attrs, key, fallback string, allowed ...string) error {
	v := attrString(attrs, key)
	if v == "" {
		if fallback != "" {
			attrs[key] = fallback
		}
		return nil
	}
	if err := validation.OneOf(key, v, allowed...); err != nil {
		return models.NewValidationError(err.Error())
	}
	attrs[key] = v
	return nil
}

func (h *hooks) publish(ctx context.Context, ev queue.Event) {
	ev.OccurredAt = time.Now().UTC()
	if err := h.Events.Publish(ctx, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish domain event",
			slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}

func summarize(s string) string {
	const limit = 80
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}

// Users

func (h *hooks) beforeUserCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if !actor.IsAdmin {
		return models.NewForbiddenError("Accounts are created through /api/auth/register")
	}
	if err := requireAttrs("username", "email", "password")(ctx, actor, attrs); err != nil {
		return err
	}
	return h.normalizeUser(attrs)
}

func (h *hooks) beforeUserEdit(_ context.Context, _ repository.Actor, _ *models.User, attrs repository.Attrs) error {
	return h.normalizeUser(attrs)
}

func (h *hooks) normalizeUser(attrs repository.Attrs) error {
	if _, ok := attrs["username"]; ok {
		username := attrString(attrs, "username")
		if err := validation.ValidateUsername(username); err != nil {
			return models.NewValidationError(err.Error())
		}
		attrs["username"] = username
	}
	if _, ok := attrs["email"]; ok {
		email := strings.ToLower(attrString(attrs, "email"))
		if err := validation.ValidateEmail(email); err != nil {
			return models.NewValidationError(err.Error())
		}
		attrs["email"] = email
	}
	if _, ok := attrs["password"]; ok {
		hashed, err := HashPassword(attrString(attrs, "password"))
		if err != nil {
			return err
		}
		attrs["password"] = hashed
	}
	return joinLists("tango_roles")(context.Background(), repository.Actor{}, attrs)
}

func (h *hooks) afterUserEdit(ctx context.Context, _ repository.Actor, before, after *models.User) {
	if h.Users != nil {
		h.Users.Invalidate(ctx, after.ID)
	}
	if h.Mentions != nil {
		h.Mentions.InvalidateFor(ctx, before.Username, before.Name, after.Username, after.Name)
	}
}

// Posts

func (h *hooks) beforePostCreate(_ context.Context, _ repository.Actor, attrs repository.Attrs) error {
	if attrString(attrs, "content") == "" && attrString(attrs, "image_url") == "" && attrString(attrs, "video_url") == "" {
		return models.NewValidationError("content is required")
	}
	if err := oneOf(attrs, "visibility", models.VisibilityPublic,
		models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate); err != nil {
		return err
	}
	return joinLists("hashtags")(context.Background(), repository.Actor{}, attrs)
}

func (h *hooks) beforePostEdit(_ context.Context, _ repository.Actor, _ *models.Post, attrs repository.Attrs) error {
	delete(attrs, "group_id")
	delete(attrs, "event_id")
	if err := oneOf(attrs, "visibility", "",
		models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate); err != nil {
		return err
	}
	return joinLists("hashtags")(context.Background(), repository.Actor{}, attrs)
}

func (h *hooks) afterPostCreate(ctx context.Context, actor repository.Actor, _ repository.Attrs, post *models.Post) {
	if post.Visibility == models.VisibilityPublic && h.Push != nil {
		if shaped, err := resource.Posts.JSONSchema(post, h.env); err == nil {
			if frame, err := notifications.Encode(notifications.TypeNewPost, shaped); err == nil {
				if err := h.Push.PublishBroadcast(ctx, frame); err != nil {
					observability.Logger.WarnContext(ctx, "new_post broadcast failed", slog.String("error", err.Error()))
				}
			}
		}
	}
	if post.Visibility == models.VisibilityPrivate {
		return
	}
	h.publish(ctx, queue.Event{
		Type:      queue.EventPostCreated,
		ActorID:   actor.ID,
		SubjectID: post.ID,
		Summary:   summarize(post.Content),
	})
}

// Events

func (h *hooks) beforeEventCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("title", "start_date")(ctx, actor, attrs); err != nil {
		return err
	}
	if err := oneOf(attrs, "visibility", models.VisibilityPublic,
		models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate); err != nil {
		return err
	}
	return validateEventFields(attrs, time.Time{}, time.Time{})
}

func (h *hooks) beforeEventEdit(_ context.Context, _ repository.Actor, current *models.Event, attrs repository.Attrs) error {
	if err := oneOf(attrs, "visibility", "",
		models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate); err != nil {
		return err
	}
	var start, end time.Time
	if current.StartDate != nil {
		start = *current.StartDate
	}
	if current.EndDate != nil {
		end = *current.EndDate
	}
	return validateEventFields(attrs, start, end)
}

// validateEventFields checks dates and coordinates, falling back to the
// stored values for the side of a pair that is not being changed.
func validateEventFields(attrs repository.Attrs, start, end time.Time) error {
	for _, key := range []string{"start_date", "end_date"} {
		t, present, err := attrTime(attrs, key)
		if err != nil {
			return models.NewValidationError(key + " must be an RFC 3339 timestamp")
		}
		if !present {
			continue
		}
		attrs[key] = t
		if key == "start_date" {
			start = t
		} else {
			end = t
		}
	}
	if _, touched := attrs["start_date"]; touched || attrs["end_date"] != nil {
		if err := validation.ValidateDateRange(start, end); err != nil {
			return models.NewValidationError(err.Error())
		}
	}

	lat, hasLat := attrFloat(attrs, "latitude")
	lng, hasLng := attrFloat(attrs, "longitude")
	if hasLat != hasLng {
		return models.NewValidationError("latitude and longitude must be set together")
	}
	if hasLat {
		if err := validation.ValidateCoordinates(lat, lng); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if n, ok := attrFloat(attrs, "max_attendees"); ok && n < 0 {
		return models.NewValidationError("max_attendees must not be negative")
	}
	return nil
}

func (h *hooks) afterEventCreate(ctx context.Context, actor repository.Actor, _ repository.Attrs, ev *models.Event) {
	if ev.Visibility == models.VisibilityPrivate {
		return
	}
	h.publish(ctx, queue.Event{
		Type:      queue.EventEventCreated,
		ActorID:   actor.ID,
		SubjectID: ev.ID,
		Summary:   summarize(ev.Title),
	})
}

// Event participants

const (
	ParticipantGoing      = "going"
	ParticipantInterested = "interested"
)

func (h *hooks) beforeParticipantCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("event_id")(ctx, actor, attrs); err != nil {
		return err
	}
	return oneOf(attrs, "status", ParticipantGoing, ParticipantGoing, ParticipantInterested)
}

func (h *hooks) beforeParticipantEdit(_ context.Context, _ repository.Actor, _ *models.EventParticipant, attrs repository.Attrs) error {
	delete(attrs, "event_id")
	return oneOf(attrs, "status", "", ParticipantGoing, ParticipantInterested)
}

// Groups

func (h *hooks) beforeGroupCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("name")(ctx, actor, attrs); err != nil {
		return err
	}
	if err := oneOf(attrs, "privacy", "public", "public", "private"); err != nil {
		return err
	}
	if attrString(attrs, "slug") != "" {
		return validateSlugAttr(attrs)
	}
	slug := validation.Slugify(attrString(attrs, "name"))
	if validation.ValidateSlug(slug) != nil {
		slug = "group-" + uuid.NewString()[:8]
	}
	attrs["slug"] = slug
	return nil
}

func (h *hooks) beforeGroupEdit(_ context.Context, _ repository.Actor, _ *models.Group, attrs repository.Attrs) error {
	if err := oneOf(attrs, "privacy", "", "public", "private"); err != nil {
		return err
	}
	if _, ok := attrs["slug"]; ok {
		return validateSlugAttr(attrs)
	}
	return nil
}

func validateSlugAttr(attrs repository.Attrs) error {
	slug := strings.ToLower(attrString(attrs, "slug"))
	if err := validation.ValidateSlug(slug); err != nil {
		return models.NewValidationError(err.Error())
	}
	attrs["slug"] = slug
	return nil
}

// Group members

func (h *hooks) beforeMemberCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("group_id")(ctx, actor, attrs); err != nil {
		return err
	}
	if !actor.IsAdmin {
		attrs["role"] = "member"
	}
	if err := oneOf(attrs, "role", "member", "member", "moderator", "admin"); err != nil {
		return err
	}
	return oneOf(attrs, "status", "active", "active", "pending")
}

func (h *hooks) beforeMemberEdit(_ context.Context, actor repository.Actor, _ *models.GroupMember, attrs repository.Attrs) error {
	delete(attrs, "group_id")
	if !actor.IsAdmin {
		delete(attrs, "role")
	}
	if err := oneOf(attrs, "role", "", "member", "moderator", "admin"); err != nil {
		return err
	}
	return oneOf(attrs, "status", "", "active", "pending")
}

func (h *hooks) afterMemberCreate(ctx context.Context, actor repository.Actor, _ repository.Attrs, m *models.GroupMember) {
	h.publish(ctx, queue.Event{
		Type:      queue.EventGroupJoined,
		ActorID:   actor.ID,
		SubjectID: m.GroupID,
		Summary:   fmt.Sprintf("joined group %d", m.GroupID),
	})
}

// Friends

func (h *hooks) beforeFriendCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	friendID, ok := attrUint(attrs, "friend_id")
	if !ok {
		return models.NewValidationError("friend_id is required")
	}
	if friendID == actor.ID {
		return models.NewValidationError("Cannot send friend request to yourself")
	}
	if h.Users != nil {
		if _, err := h.Users.GetByID(ctx, friendID); err != nil {
			return err
		}
	}
	if h.Friends != nil {
		existing, err := h.Friends.Between(ctx, actor.ID, friendID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == models.FriendStatusAccepted {
				return models.NewValidationError("You are already friends")
			}
			return models.NewValidationError("Friend request already exists")
		}
	}
	attrs["friend_id"] = friendID
	attrs["status"] = models.FriendStatusPending
	return nil
}

// beforeFriendEdit lets only the addressee answer a pending request. The
// requester may still change the note.
func (h *hooks) beforeFriendEdit(_ context.Context, actor repository.Actor, current *models.Friend, attrs repository.Attrs) error {
	delete(attrs, "friend_id")
	status := attrString(attrs, "status")
	if status == "" || status == current.Status {
		delete(attrs, "status")
		return nil
	}
	if err := validation.OneOf("status", status, models.FriendStatusAccepted, models.FriendStatusRejected); err != nil {
		return models.NewValidationError(err.Error())
	}
	if current.FriendID != actor.ID && !actor.IsAdmin {
		return models.NewForbiddenError("You can only answer friend requests sent to you")
	}
	if current.Status != models.FriendStatusPending {
		return models.NewValidationError("Friend request is not pending")
	}
	attrs["status"] = status
	return nil
}

func (h *hooks) afterFriendCreate(ctx context.Context, actor repository.Actor, _ repository.Attrs, f *models.Friend) {
	if h.Notifications == nil {
		return
	}
	_, err := h.Notifications.Notify(ctx, NotifyInput{
		UserID:  f.FriendID,
		ActorID: actor.ID,
		Type:    models.NotificationFriendRequest,
		Title:   "New friend request",
		Body:    f.Note,
		Data:    map[string]any{"friend_id": f.ID},
	})
	if err != nil {
		observability.Logger.WarnContext(ctx, "friend request notification failed", slog.String("error", err.Error()))
	}
}

func (h *hooks) afterFriendEdit(ctx context.Context, actor repository.Actor, before, after *models.Friend) {
	if before.Status == models.FriendStatusAccepted || after.Status != models.FriendStatusAccepted {
		return
	}
	if h.Notifications != nil {
		_, err := h.Notifications.Notify(ctx, NotifyInput{
			UserID:  after.UserID,
			ActorID: after.FriendID,
			Type:    models.NotificationFriendAccepted,
			Title:   "Friend request accepted",
			Data:    map[string]any{"friend_id": after.ID},
		})
		if err != nil {
			observability.Logger.WarnContext(ctx, "friend accepted notification failed", slog.String("error", err.Error()))
		}
	}
	h.publish(ctx, queue.Event{
		Type:      queue.EventFriendAccepted,
		ActorID:   actor.ID,
		SubjectID: after.ID,
		Summary:   "accepted a friend request",
	})
}

// Chat rooms

const (
	RoomSingle = "single"
	RoomGroup  = "group"
)

func (h *hooks) beforeRoomCreate(_ context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := oneOf(attrs, "room_type", RoomSingle, RoomSingle, RoomGroup); err != nil {
		return err
	}
	others := without(attrUints(attrs, "member_ids"), actor.ID)
	if attrs["room_type"] == RoomSingle && len(others) != 1 {
		return models.NewValidationError("single rooms need exactly one other member")
	}
	attrs["member_ids"] = toAny(others)
	attrs["slug"] = uuid.NewString()
	return nil
}

func toAny(ids []uint) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = float64(id)
	}
	return out
}

// Notifications

func (h *hooks) beforeNotificationCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("title")(ctx, actor, attrs); err != nil {
		return err
	}
	if attrString(attrs, "type") == "" {
		attrs["type"] = "general"
	}
	return encodeData(attrs)
}

func (h *hooks) beforeNotificationEdit(_ context.Context, _ repository.Actor, current *models.Notification, attrs repository.Attrs) error {
	if read, ok := attrs["is_read"].(bool); ok && read != current.IsRead {
		if read {
			attrs["read_at"] = time.Now().UTC()
		} else {
			attrs["read_at"] = nil
		}
	}
	return encodeData(attrs)
}

// encodeData stores a JSON object body field in the data column.
func encodeData(attrs repository.Attrs) error {
	v, ok := attrs["data"]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return models.NewValidationError("data must be JSON")
	}
	attrs["data"] = datatypes.JSON(raw)
	return nil
}

func (h *hooks) afterNotificationCreate(ctx context.Context, _ repository.Actor, _ repository.Attrs, n *models.Notification) {
	if h.Notifications != nil {
		h.Notifications.Push(ctx, n)
	}
}

func (h *hooks) afterNotificationEdit(ctx context.Context, _ repository.Actor, _, after *models.Notification) {
	if h.Notifications != nil {
		h.Notifications.InvalidateUnread(ctx, after.UserID)
	}
}

func (h *hooks) afterNotificationDelete(ctx context.Context, _ repository.Actor, n *models.Notification) {
	if h.Notifications != nil {
		h.Notifications.InvalidateUnread(ctx, n.UserID)
	}
}

// Subscriptions

func (h *hooks) beforeSubscriptionCreate(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	if err := requireAttrs("plan")(ctx, actor, attrs); err != nil {
		return err
	}
	return subscriptionFields(attrs, "active")
}

func (h *hooks) beforeSubscriptionEdit(_ context.Context, _ repository.Actor, _ *models.Subscription, attrs repository.Attrs) error {
	return subscriptionFields(attrs, "")
}

func subscriptionFields(attrs repository.Attrs, defaultStatus string) error {
	if err := oneOf(attrs, "status", defaultStatus, "active", "past_due", "canceled"); err != nil {
		return err
	}
	t, present, err := attrTime(attrs, "current_period_end")
	if err != nil {
		return models.NewValidationError("current_period_end must be an RFC 3339 timestamp")
	}
	if present {
		attrs["current_period_end"] = t
	}
	return nil
}

// Experiences

func (h *hooks) beforeDanceExperience(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	for _, key := range []string{"leader_level", "follower_level"} {
		if v, ok := attrFloat(attrs, key); ok && (v < 0 || v > 10) {
			return models.NewValidationError(key + " must be between 0 and 10")
		}
	}
	if y, ok := attrFloat(attrs, "started_year"); ok && (y < 1900 || int(y) > time.Now().Year()) {
		return models.NewValidationError("started_year is out of range")
	}
	return joinLists("social_dancing_cities", "favourite_dancing_cities")(ctx, actor, attrs)
}

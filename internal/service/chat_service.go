package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mundotango/internal/models"
	"mundotango/internal/notifications"
	"mundotango/internal/observability"
	"mundotango/internal/repository"
	"mundotango/internal/resource"
)

// TypingEvent is relayed to the other members of a room.
type TypingEvent struct {
	ChatRoomID uint `json:"chat_room_id"`
	UserID     uint `json:"user_id"`
	IsTyping   bool `json:"is_typing"`
}

// ChatService implements room membership checks and message fan-out.
type ChatService struct {
	chats repository.ChatRepository
	push  FramePublisher
	env   resource.Env
	now   func() time.Time
}

func NewChatService(chats repository.ChatRepository, push FramePublisher, mediaBaseURL string) *ChatService {
	return &ChatService{chats: chats, push: push, env: resource.Env{MediaBaseURL: mediaBaseURL}, now: time.Now}
}

// Typing relays a typing indicator from userID to the rest of the room.
func (s *ChatService) Typing(ctx context.Context, userID uint, ev TypingEvent) error {
	if ev.ChatRoomID == 0 {
		return models.NewValidationError("chat_room_id is required")
	}
	members, err := s.membersOf(ctx, ev.ChatRoomID, userID)
	if err != nil {
		return err
	}
	ev.UserID = userID
	frame, err := notifications.Encode(notifications.TypeTyping, ev)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.push.PublishUsers(ctx, without(members, userID), frame)
}

// beforeMessageList only lists one room at a time, for its members.
func (s *ChatService) beforeMessageList(ctx context.Context, q *repository.ListQuery) error {
	if q.Actor.IsAdmin {
		return nil
	}
	roomID, ok := attrUint(repository.Attrs{"id": q.Filters["chat_room_id"]}, "id")
	if !ok {
		return models.NewValidationError("chat_room_id filter is required")
	}
	_, err := s.membersOf(ctx, roomID, q.Actor.ID)
	return err
}

// beforeMessage rejects messages from non-members and empty messages.
func (s *ChatService) beforeMessage(ctx context.Context, actor repository.Actor, attrs repository.Attrs) error {
	roomID, ok := attrUint(attrs, "chat_room_id")
	if !ok {
		return models.NewValidationError("chat_room_id is required")
	}
	if attrString(attrs, "message") == "" && attrString(attrs, "file_url") == "" {
		return models.NewValidationError("message or file_url is required")
	}
	if _, err := s.membersOf(ctx, roomID, actor.ID); err != nil {
		return err
	}
	if attrString(attrs, "message_type") == "" {
		attrs["message_type"] = "text"
	}
	return nil
}

// afterMessage bumps the room and sends the message to every member,
// the sender's other sessions included.
func (s *ChatService) afterMessage(ctx context.Context, _ repository.Actor, _ repository.Attrs, msg *models.ChatMessage) {
	if err := s.chats.TouchLastMessage(ctx, msg.ChatRoomID, s.now()); err != nil {
		observability.Logger.WarnContext(ctx, "failed to touch chat room", slog.String("error", err.Error()))
	}
	members, err := s.chats.MemberIDs(ctx, msg.ChatRoomID)
	if err != nil {
		observability.Logger.WarnContext(ctx, "failed to load chat members", slog.String("error", err.Error()))
		return
	}
	shaped, err := resource.ChatMessages.JSONSchema(msg, s.env)
	if err != nil {
		return
	}
	frame, err := notifications.Encode(notifications.TypeNewMessage, shaped)
	if err != nil {
		return
	}
	if err := s.push.PublishUsers(ctx, members, frame); err != nil {
		observability.Logger.WarnContext(ctx, "new_message fan-out failed", slog.String("error", err.Error()))
	}
}

// afterRoom makes the creator and any requested member_ids members.
func (s *ChatService) afterRoom(ctx context.Context, actor repository.Actor, attrs repository.Attrs, room *models.ChatRoom) {
	ids := append([]uint{actor.ID}, attrUints(attrs, "member_ids")...)
	for _, id := range ids {
		if err := s.chats.AddMember(ctx, room.ID, id); err != nil {
			observability.Logger.ErrorContext(ctx, "failed to add chat member",
				slog.Uint64("room_id", uint64(room.ID)), slog.Uint64("member_id", uint64(id)), slog.String("error", err.Error()))
			continue
		}
		room.Members = append(room.Members, models.ChatRoomUser{ChatRoomID: room.ID, UserID: id})
	}
}

func (s *ChatService) membersOf(ctx context.Context, roomID, userID uint) ([]uint, error) {
	members, err := s.chats.MemberIDs(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, id := range members {
		if id == userID {
			return members, nil
		}
	}
	return nil, models.NewForbiddenError("You are not a member of this chat room")
}

func without(ids []uint, skip uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}

func attrString(attrs repository.Attrs, key string) string {
	s, _ := attrs[key].(string)
	return strings.TrimSpace(s)
}

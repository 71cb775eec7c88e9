package resource

import "mundotango/internal/models"

var ChatRooms = &Resource[models.ChatRoom]{
	Name:  "chat room",
	Empty: EmptyArray,
	Keys: []string{
		"id", "user_id", "slug", "title", "room_type", "image_url", "last_message_at",
		"member_ids", "createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(r *models.ChatRoom, env Env) (Object, error) {
		members := make([]uint, 0, len(r.Members))
		for _, m := range r.Members {
			members = append(members, m.UserID)
		}
		return withTimestamps(Object{
			"id":              r.ID,
			"user_id":         r.UserID,
			"slug":            r.Slug,
			"title":           orNull(r.Title),
			"room_type":       r.RoomType,
			"image_url":       NormalizeImageURL(env.MediaBaseURL, r.ImageURL),
			"last_message_at": ptrOrNull(r.LastMessageAt),
			"member_ids":      members,
		}, r.CreatedAt, r.UpdatedAt, r.DeletedAt), nil
	},
}

var ChatMessages = &Resource[models.ChatMessage]{
	Name:  "chat message",
	Empty: EmptyArray,
	Keys: []string{
		"id", "chat_room_id", "user_id", "user", "message", "message_type",
		"file_url", "reply_to_id", "createdAt", "updatedAt", "deletedAt",
	},
	Schema: func(m *models.ChatMessage, env Env) (Object, error) {
		return withTimestamps(Object{
			"id":           m.ID,
			"chat_room_id": m.ChatRoomID,
			"user_id":      m.UserID,
			"user":         userSummary(m.User, env),
			"message":      m.Message,
			"message_type": m.MessageType,
			"file_url":     NormalizeImageURL(env.MediaBaseURL, m.FileURL),
			"reply_to_id":  ptrOrNull(m.ReplyToID),
		}, m.CreatedAt, m.UpdatedAt, m.DeletedAt), nil
	},
}

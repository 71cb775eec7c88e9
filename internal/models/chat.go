package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatRoom is a one-to-one or group conversation.
type ChatRoom struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	Slug          string         `gorm:"size:80;uniqueIndex" json:"slug"`
	Title         string         `gorm:"size:150" json:"title"`
	RoomType      string         `gorm:"size:20;default:'single'" json:"room_type"`
	ImageURL      string         `json:"image_url"`
	LastMessageAt *time.Time     `json:"last_message_at"`
	Members       []ChatRoomUser `gorm:"foreignKey:ChatRoomID" json:"members,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// ChatRoomUser is a room membership row.
type ChatRoomUser struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatRoomID uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"chat_room_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_room_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMessage is one message in a room.
type ChatMessage struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ChatRoomID  uint           `gorm:"not null;index" json:"chat_room_id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Message     string         `gorm:"type:text" json:"message"`
	MessageType string         `gorm:"size:20;default:'text'" json:"message_type"`
	FileURL     string         `json:"file_url"`
	ReplyToID   *uint          `json:"reply_to_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Post is a feed entry, optionally scoped to a group or event.
type Post struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GroupID    *uint          `gorm:"index" json:"group_id"`
	EventID    *uint          `gorm:"index" json:"event_id"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	ImageURL   string         `json:"image_url"`
	VideoURL   string         `json:"video_url"`
	Visibility string         `gorm:"size:20;default:'public'" json:"visibility"`
	Location   string         `json:"location"`
	Hashtags   string         `json:"hashtags"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Comment belongs to a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
